// Package evidence assembles the immutable SignatureEvidence aggregate: the
// single object binding signer, document, signature payload, timestamp,
// device and consent facts for one signing event.
package evidence

import (
	"time"

	"github.com/firmaleg/sescore/internal/sescore/device"
	"github.com/firmaleg/sescore/internal/sescore/dochash"
	"github.com/firmaleg/sescore/internal/sescore/tsa"
)

// Signer methods form a closed set; anything else is rejected at build time.
const (
	MethodSMSCode     = "sms_code"
	MethodHandwritten = "handwritten"
	MethodEmailClick  = "email_click"
	MethodElectronic  = "electronic"
)

// ValidMethod reports whether m belongs to the closed signer-method set.
func ValidMethod(m string) bool {
	switch m {
	case MethodSMSCode, MethodHandwritten, MethodEmailClick, MethodElectronic:
		return true
	}
	return false
}

// Signer captures who signed and how they authenticated.
type Signer struct {
	Method          string    `json:"method"`
	Identifier      string    `json:"identifier"` // phone or email
	Name            string    `json:"name,omitempty"`
	TaxID           string    `json:"taxId,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
	IPAddress       string    `json:"ipAddress"`
	UserAgent       string    `json:"userAgent"`
	Location        string    `json:"location,omitempty"`

	// AdditionalFields holds signer attributes outside the named schema.
	AdditionalFields map[string]string `json:"additionalFields,omitempty"`
}

// Document is the hashed content under signature. Content is retained when
// provided so integrity can be re-verified later; Size is in bytes.
type Document struct {
	dochash.DocumentHash
	Content string `json:"content,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// Payload is the signature itself: drawn image data or a confirmation code.
type Payload struct {
	Value       string    `json:"value"`
	Method      string    `json:"method"`
	SignedAt    time.Time `json:"signedAt"`
	DurationMS  int64     `json:"durationMs,omitempty"`
	PointCount  int       `json:"pointCount,omitempty"`
	InputDevice string    `json:"inputDevice,omitempty"` // stylus, finger, mouse
}

// AuditEvent is one lifecycle entry embedded in the evidence object.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
}

// InteractionEvent is a fine-grained telemetry entry (page view, scroll,
// click, signature start/complete).
type InteractionEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Block groups the legal-evidence facts: consent, intent, the agreement
// statement shown to the signer, the embedded audit trail and telemetry.
type Block struct {
	ConsentGiven      bool               `json:"consentGiven"`
	IntentToBind      bool               `json:"intentToBind"`
	AgreementText     string             `json:"agreementText,omitempty"`
	AuditTrail        []AuditEvent       `json:"auditTrail"`
	SessionDurationMS int64              `json:"sessionDurationMs,omitempty"`
	ViewDurationMS    int64              `json:"viewDurationMs,omitempty"`
	Interactions      []InteractionEvent `json:"interactions,omitempty"`
}

// SignatureEvidence is the core aggregate for one signing event. Once
// constructed it is immutable; any later upgrade produces a new object
// referencing the original data.
type SignatureEvidence struct {
	ID             string          `json:"id"`
	Signer         Signer          `json:"signer"`
	Document       Document        `json:"document"`
	Signature      Payload         `json:"signature"`
	Timestamp      tsa.Record      `json:"timestamp"`
	DeviceMetadata device.Metadata `json:"deviceMetadata"`
	Evidence       Block           `json:"evidence"`
	CreatedAt      time.Time       `json:"createdAt"`
}

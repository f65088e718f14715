package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firmaleg/sescore/internal/sescore/device"
	"github.com/firmaleg/sescore/internal/sescore/dochash"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
	"github.com/firmaleg/sescore/internal/sescore/logger"
	"github.com/firmaleg/sescore/internal/sescore/tsa"
)

// ValidationError reports a missing or malformed required parameter.
// Surfaced before any hashing or timestamping work begins; no partial
// evidence object is ever produced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid signature params: %s: %s", e.Field, e.Reason)
}

// CreateParams carries the inputs for one signature creation.
type CreateParams struct {
	// Required.
	SignerMethod     string
	SignerIdentifier string
	DocumentContent  string
	DocumentName     string
	SignatureValue   string
	SignatureMethod  string
	IPAddress        string
	UserAgent        string

	// Optional signer facts.
	SignerName       string
	SignerTaxID      string
	SignerEmail      string
	SignerPhone      string
	Location         string
	AdditionalFields map[string]string

	// Optional consent facts. Both must be true for legal validity; the
	// builder records them as given, the verifier judges them.
	ConsentGiven  bool
	IntentToBind  bool
	AgreementText string

	// Optional telemetry.
	Device            *device.Metadata
	DeviceInput       *device.CaptureInput
	SignatureDuration time.Duration
	PointCount        int
	InputDevice       string
	SessionDurationMS int64
	ViewDurationMS    int64
	Interactions      []InteractionEvent

	// RetainContent keeps the full document content inside the evidence
	// object for later integrity re-verification.
	RetainContent bool

	// ResourceID keys the ledger trail the signing lifecycle is recorded
	// under. Empty means no ledger wiring for this signature.
	ResourceID string
}

func (p *CreateParams) validate() error {
	required := []struct{ field, value string }{
		{"signerMethod", p.SignerMethod},
		{"signerIdentifier", p.SignerIdentifier},
		{"documentName", p.DocumentName},
		{"signatureValue", p.SignatureValue},
		{"signatureMethod", p.SignatureMethod},
		{"ipAddress", p.IPAddress},
		{"userAgent", p.UserAgent},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	// DocumentContent may be empty (the empty document hashes like any
	// other) but the field must be present in the caller's request shape;
	// nothing to check here beyond method membership.
	if !ValidMethod(p.SignerMethod) {
		return &ValidationError{Field: "signerMethod", Reason: fmt.Sprintf("unknown method %q", p.SignerMethod)}
	}
	return nil
}

// Builder orchestrates document hashing, timestamping and device capture
// into SignatureEvidence objects.
type Builder struct {
	tsaClient *tsa.Client
	led       *ledger.Ledger
}

// NewBuilder wires the builder. led may be nil: the evidence object always
// carries its own embedded audit events, ledger wiring is explicit.
func NewBuilder(tsaClient *tsa.Client, led *ledger.Ledger) *Builder {
	return &Builder{tsaClient: tsaClient, led: led}
}

// CreateSignature builds the full evidence object for one signing event.
//
// The document hash is always freshly computed from DocumentContent at call
// time; a caller-supplied hash is never trusted. Construction is not safely
// cancellable once hashing and timestamping have happened: the method builds
// the complete object and the caller decides whether to discard it.
func (b *Builder) CreateSignature(ctx context.Context, p CreateParams) (*SignatureEvidence, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	docHash := dochash.HashString(p.DocumentContent, p.DocumentName)
	tsRecord := b.tsaClient.GetTimestamp(ctx, docHash.Hash)

	var md device.Metadata
	switch {
	case p.Device != nil:
		md = *p.Device
	case p.DeviceInput != nil:
		md = device.Capture(*p.DeviceInput)
	default:
		md = device.Capture(device.CaptureInput{IPAddress: p.IPAddress, UserAgent: p.UserAgent})
	}
	fingerprint := device.Fingerprint(md)

	doc := Document{DocumentHash: docHash, Size: len(p.DocumentContent)}
	if p.RetainContent {
		doc.Content = p.DocumentContent
	}

	sig := &SignatureEvidence{
		ID: uuid.NewString(),
		Signer: Signer{
			Method:           p.SignerMethod,
			Identifier:       p.SignerIdentifier,
			Name:             p.SignerName,
			TaxID:            p.SignerTaxID,
			Email:            p.SignerEmail,
			Phone:            p.SignerPhone,
			AuthenticatedAt:  now,
			IPAddress:        p.IPAddress,
			UserAgent:        p.UserAgent,
			Location:         p.Location,
			AdditionalFields: p.AdditionalFields,
		},
		Document: doc,
		Signature: Payload{
			Value:       p.SignatureValue,
			Method:      p.SignatureMethod,
			SignedAt:    now,
			DurationMS:  p.SignatureDuration.Milliseconds(),
			PointCount:  p.PointCount,
			InputDevice: p.InputDevice,
		},
		Timestamp:      tsRecord,
		DeviceMetadata: md,
		Evidence: Block{
			ConsentGiven:      p.ConsentGiven,
			IntentToBind:      p.IntentToBind,
			AgreementText:     p.AgreementText,
			SessionDurationMS: p.SessionDurationMS,
			ViewDurationMS:    p.ViewDurationMS,
			Interactions:      p.Interactions,
		},
		CreatedAt: now,
	}

	// The embedded audit event carries the derived fingerprint only, never
	// the raw device capture.
	sig.Evidence.AuditTrail = append(sig.Evidence.AuditTrail, AuditEvent{
		Timestamp: now,
		Action:    "signature_created",
		Details: map[string]string{
			"signerMethod":      p.SignerMethod,
			"deviceFingerprint": fingerprint,
			"timestampSource":   tsRecord.Source,
		},
	})

	if b.led != nil && p.ResourceID != "" {
		if err := b.recordInLedger(sig, p, fingerprint); err != nil {
			return nil, err
		}
	}

	logger.L().Infow("signature created",
		"signature_id", sig.ID,
		"signer_method", p.SignerMethod,
		"document_hash", docHash.Hash,
		"timestamp_source", tsRecord.Source,
		"timestamp_verified", tsRecord.Verified)
	return sig, nil
}

func (b *Builder) recordInLedger(sig *SignatureEvidence, p CreateParams, fingerprint string) error {
	if _, err := b.led.CreateTrail(p.ResourceID, p.DocumentName); err != nil {
		return fmt.Errorf("create trail: %w", err)
	}
	_, err := b.led.AddRecord(p.ResourceID, "signature_created",
		ledger.Actor{ID: sig.Signer.Identifier, Type: ledger.ActorUser, Identifier: sig.Signer.Identifier},
		ledger.Resource{Type: ledger.ResourceSignature, ID: sig.ID, Name: p.DocumentName},
		map[string]string{
			"signerMethod":    p.SignerMethod,
			"signatureMethod": p.SignatureMethod,
			"documentHash":    sig.Document.Hash,
		},
		ledger.RecordMetadata{
			IPAddress:         p.IPAddress,
			UserAgent:         p.UserAgent,
			DeviceFingerprint: fingerprint,
			Location:          p.Location,
		},
		map[string]string{"timestampSource": sig.Timestamp.Source},
	)
	if err != nil {
		return fmt.Errorf("record signature in trail: %w", err)
	}
	return nil
}

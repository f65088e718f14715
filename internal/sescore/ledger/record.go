// Package ledger implements the append-only, hash-chained audit trail that
// backs every signing event. Each trail is keyed by resource id, records are
// chained through previousHash, and a sealed trail accepts no further writes.
package ledger

import (
	"fmt"
	"time"
)

// Actor types recorded in audit entries.
const (
	ActorUser   = "user"
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// Resource types a trail can reference.
const (
	ResourceContract  = "contract"
	ResourceSignature = "signature"
	ResourceDocument  = "document"
)

// GenesisHash is the previousHash of the first record in every trail.
const GenesisHash = "0"

// Actor identifies who performed an audited action.
type Actor struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// Resource identifies what an audited action was performed against.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RecordMetadata carries request-context facts for one record.
// DeviceFingerprint is the derived identifier, never raw device capture.
type RecordMetadata struct {
	IPAddress         string `json:"ipAddress,omitempty"`
	UserAgent         string `json:"userAgent,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
	Location          string `json:"location,omitempty"`
	Session           string `json:"session,omitempty"`
}

// AuditRecord is one hash-chained entry in a trail.
//
// Hash covers every other field: the canonical serialization excludes the
// hash field itself and the chain binds PreviousHash as a hashing prefix,
// so mutating any field after creation is detectable.
type AuditRecord struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	Actor        Actor             `json:"actor"`
	Resource     Resource          `json:"resource"`
	Details      map[string]string `json:"details,omitempty"`
	Metadata     RecordMetadata    `json:"metadata"`
	Evidence     map[string]string `json:"evidence,omitempty"`
	Hash         string            `json:"hash"`
	PreviousHash string            `json:"previousHash"`
	Sequence     int               `json:"sequence"`
}

// AuditTrail is the ordered, chained record list for one resource.
type AuditTrail struct {
	ResourceID   string        `json:"resourceId"`
	ResourceName string        `json:"resourceName,omitempty"`
	Records      []AuditRecord `json:"records"`
	RootHash     string        `json:"rootHash"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastModified time.Time     `json:"lastModified"`
	IsSealed     bool          `json:"isSealed"`
	SealedAt     *time.Time    `json:"sealedAt,omitempty"`
}

// SealedTrailError reports an append attempted after sealing. This is a
// business-logic error, not a transient fault; the trail is left untouched.
type SealedTrailError struct {
	ResourceID string
}

func (e *SealedTrailError) Error() string {
	return fmt.Sprintf("audit trail for resource %q is sealed and accepts no further records", e.ResourceID)
}

// IntegrityResult is the full outcome of a trail verification pass.
// Issues accumulates every discrepancy found; verification never
// short-circuits on the first failure.
type IntegrityResult struct {
	IsValid bool        `json:"isValid"`
	Issues  []string    `json:"issues"`
	Trail   *AuditTrail `json:"trail,omitempty"`
}

// TrailExport bundles a trail snapshot with a freshly computed verification.
type TrailExport struct {
	Trail        *AuditTrail     `json:"trail"`
	Verification IntegrityResult `json:"verification"`
	ExportFormat string          `json:"exportFormat"`
	ExportedAt   time.Time       `json:"exportedAt"`
}

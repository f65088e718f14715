// Package verifier re-checks a SignatureEvidence object on demand: hashes
// are recomputed, flags are read back, and every doubt is surfaced as a
// warning rather than hidden.
package verifier

import (
	"fmt"

	"github.com/firmaleg/sescore/internal/sescore/dochash"
	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

// Checks holds the individual pass/fail verdicts.
type Checks struct {
	DocumentIntegrity  bool `json:"documentIntegrity"`
	TimestampValid     bool `json:"timestampValid"`
	SignaturePresent   bool `json:"signaturePresent"`
	AuditTrailComplete bool `json:"auditTrailComplete"`
}

// Result is the outcome of one verification pass. Valid is true only when
// every check passes AND the warnings list is empty: partial evidence still
// carries legal risk, so a signature with any warning is not fully valid.
type Result struct {
	Valid    bool     `json:"valid"`
	Checks   Checks   `json:"checks"`
	Warnings []string `json:"warnings"`
}

// Verify re-checks an evidence object in isolation.
func Verify(sig *evidence.SignatureEvidence) Result {
	res := Result{Warnings: []string{}}

	// Document integrity is only checkable when content was retained.
	// Absent content is a warning, never a silent pass.
	res.Checks.DocumentIntegrity = true
	if sig.Document.Content != "" {
		recomputed := dochash.HashString(sig.Document.Content, sig.Document.OriginalName)
		if recomputed.Hash != sig.Document.Hash {
			res.Checks.DocumentIntegrity = false
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("document hash mismatch: stored %s, recomputed %s", sig.Document.Hash, recomputed.Hash))
		}
	} else {
		res.Warnings = append(res.Warnings,
			"document content not retained: integrity cannot be re-verified")
	}

	// Mirrors the verified flag set at creation; no authority re-contact.
	res.Checks.TimestampValid = sig.Timestamp.Verified
	if !sig.Timestamp.Verified {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("timestamp not verified by an authority (source %q)", sig.Timestamp.Source))
	}

	res.Checks.SignaturePresent = sig.Signature.Value != ""
	res.Checks.AuditTrailComplete = len(sig.Evidence.AuditTrail) > 0

	if !sig.Evidence.ConsentGiven {
		res.Warnings = append(res.Warnings, "consent was not recorded as given")
	}
	if !sig.Evidence.IntentToBind {
		res.Warnings = append(res.Warnings, "intent to be bound was not recorded")
	}

	res.Valid = res.Checks.DocumentIntegrity &&
		res.Checks.TimestampValid &&
		res.Checks.SignaturePresent &&
		res.Checks.AuditTrailComplete &&
		len(res.Warnings) == 0
	return res
}

// VerifyWithLedger additionally re-verifies the ledger trail for resourceID
// and folds any chain discrepancies into the warnings.
func VerifyWithLedger(sig *evidence.SignatureEvidence, led *ledger.Ledger, resourceID string) Result {
	res := Verify(sig)

	integrity, err := led.VerifyIntegrity(resourceID)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("audit trail unavailable: %v", err))
		res.Checks.AuditTrailComplete = false
	} else if !integrity.IsValid {
		res.Warnings = append(res.Warnings, integrity.Issues...)
	}

	res.Valid = res.Checks.DocumentIntegrity &&
		res.Checks.TimestampValid &&
		res.Checks.SignaturePresent &&
		res.Checks.AuditTrailComplete &&
		len(res.Warnings) == 0
	return res
}

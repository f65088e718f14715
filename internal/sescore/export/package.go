// Package export renders a SignatureEvidence object into its external
// artifacts: the evidence package, the verification CSV and the
// human-readable evidentiary report.
package export

import (
	"fmt"
	"time"

	"github.com/firmaleg/sescore/internal/sescore/evidence"
)

// PackageMetadata describes one export.
type PackageMetadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
	Format     string    `json:"format"`
}

// Package is the exportable evidence bundle. Pure packaging: no new
// computation happens here.
type Package struct {
	Metadata    PackageMetadata             `json:"metadata"`
	Signature   *evidence.SignatureEvidence `json:"signature"`
	LegalNotice string                      `json:"legalNotice"`
}

const legalNoticeTemplate = "Esta firma electrónica simple (SES) fue creada mediante el método %q " +
	"con sello de tiempo emitido por %q. El objeto de evidencia adjunto acredita la identidad " +
	"del firmante, la integridad del documento y el consentimiento prestado, conforme a %s. " +
	"La cadena de auditoría asociada es verificable de forma independiente."

// EvidencePackage bundles the evidence object with a templated legal notice
// referencing the signer method, the timestamp source and the applicable
// legal framework.
func EvidencePackage(sig *evidence.SignatureEvidence, legalFramework string) Package {
	if legalFramework == "" {
		legalFramework = "Reglamento (UE) 910/2014 (eIDAS), art. 25"
	}
	return Package{
		Metadata: PackageMetadata{
			ExportedAt: time.Now().UTC(),
			Version:    "1.0",
			Format:     "ses-evidence-package",
		},
		Signature:   sig,
		LegalNotice: fmt.Sprintf(legalNoticeTemplate, sig.Signer.Method, sig.Timestamp.Source, legalFramework),
	}
}

// VerificationURL builds the public verification link for a signature.
func VerificationURL(baseURL, signatureID string) string {
	return fmt.Sprintf("%s/verify/%s", baseURL, signatureID)
}

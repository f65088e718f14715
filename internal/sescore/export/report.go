package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

// ReportOptions controls the rendered evidentiary report.
type ReportOptions struct {
	BaseURL        string
	LegalFramework string

	// IncludeContent renders the contract text page when the evidence
	// object retained it.
	IncludeContent bool
}

// RenderReport writes the human-readable evidentiary artifact: contract
// text (when retained), signature details with the verification URL, the
// audit-integrity section and the legal notice. Every known field is
// reproduced verbatim; a field that cannot be rendered appears as
// "no disponible" rather than being omitted.
func RenderReport(w io.Writer, sig *evidence.SignatureEvidence, export *ledger.TrailExport, opts ReportOptions) error {
	var b strings.Builder

	title(&b, "DOCUMENTO FIRMADO")
	if opts.IncludeContent && sig.Document.Content != "" {
		b.WriteString(sig.Document.Content)
		b.WriteString("\n")
	} else {
		b.WriteString(notAvailable + "\n")
	}

	title(&b, "DETALLES DE LA FIRMA")
	field(&b, "ID de firma", sig.ID)
	field(&b, "Método del firmante", sig.Signer.Method)
	field(&b, "Identificador del firmante", sig.Signer.Identifier)
	field(&b, "Nombre del firmante", sig.Signer.Name)
	field(&b, "Hash del documento", sig.Document.Hash)
	field(&b, "Algoritmo", sig.Document.Algorithm)
	field(&b, "Documento", sig.Document.OriginalName)
	field(&b, "Sello de tiempo", sig.Timestamp.Value.UTC().Format(time.RFC3339))
	field(&b, "Fuente del sello", sig.Timestamp.Source)
	field(&b, "Sello verificado", siNo(sig.Timestamp.Verified))
	field(&b, "Número de serie", sig.Timestamp.SerialNumber)
	field(&b, "Dirección IP", sig.Signer.IPAddress)
	field(&b, "Consentimiento", siNo(sig.Evidence.ConsentGiven))
	field(&b, "Intención de vincularse", siNo(sig.Evidence.IntentToBind))
	field(&b, "URL de verificación", VerificationURL(opts.BaseURL, sig.ID))

	title(&b, "INTEGRIDAD DE LA AUDITORÍA")
	if export != nil {
		field(&b, "Registros", fmt.Sprintf("%d", len(export.Trail.Records)))
		field(&b, "Hash raíz", export.Trail.RootHash)
		field(&b, "Sellada", siNo(export.Trail.IsSealed))
		field(&b, "Íntegra", siNo(export.Verification.IsValid))
		for _, issue := range export.Verification.Issues {
			field(&b, "Incidencia", issue)
		}
	} else {
		field(&b, "Registros", "")
		field(&b, "Hash raíz", "")
		field(&b, "Íntegra", "")
	}

	title(&b, "AVISO LEGAL")
	pkg := EvidencePackage(sig, opts.LegalFramework)
	b.WriteString(pkg.LegalNotice)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func title(b *strings.Builder, s string) {
	b.WriteString("\n==== " + s + " ====\n")
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		value = notAvailable
	}
	b.WriteString(fmt.Sprintf("%-28s %s\n", name+":", value))
}

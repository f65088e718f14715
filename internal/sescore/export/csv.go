package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

// notAvailable is rendered for any field that cannot be produced. Rows are
// never silently dropped.
const notAvailable = "no disponible"

// The CSV verification format is a compatibility contract: header and field
// order are fixed and must be preserved by any reimplementation claiming
// interoperability.
var csvHeader = []string{"Campo", "Valor", "Verificable"}

// WriteVerificationCSV writes one row per evidentiary field. integrity may
// be nil when no ledger trail accompanies the signature.
func WriteVerificationCSV(w io.Writer, sig *evidence.SignatureEvidence, integrity *ledger.IntegrityResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	rows := [][3]string{
		{"ID_Firma", orNA(sig.ID), "Sí"},
		{"Tipo_Firma", "SES", "Sí"},
		{"Método_Firmante", orNA(sig.Signer.Method), "Sí"},
		{"Identificador_Firmante", orNA(sig.Signer.Identifier), "Sí"},
		{"Nombre_Firmante", orNA(sig.Signer.Name), "No"},
		{"Hash_Documento", orNA(sig.Document.Hash), "Sí"},
		{"Algoritmo_Hash", orNA(sig.Document.Algorithm), "Sí"},
		{"Nombre_Documento", orNA(sig.Document.OriginalName), "No"},
		{"Timestamp_Valor", sig.Timestamp.Value.UTC().Format(time.RFC3339), "Sí"},
		{"Timestamp_Fuente", orNA(sig.Timestamp.Source), "Sí"},
		{"Timestamp_Verificado", siNo(sig.Timestamp.Verified), "Sí"},
		{"Timestamp_Serie", orNA(sig.Timestamp.SerialNumber), "No"},
		{"IP_Firmante", orNA(sig.Signer.IPAddress), "No"},
		{"Consentimiento_Dado", siNo(sig.Evidence.ConsentGiven), "Sí"},
		{"Intencion_Vincularse", siNo(sig.Evidence.IntentToBind), "Sí"},
		{"Eventos_Auditoría", strconv.Itoa(len(sig.Evidence.AuditTrail)), "Sí"},
	}

	if integrity != nil {
		rows = append(rows,
			[3]string{"Integridad_Auditoría", siNo(integrity.IsValid), "Sí"},
			[3]string{"Incidencias_Auditoría", strconv.Itoa(len(integrity.Issues)), "Sí"},
		)
	} else {
		rows = append(rows,
			[3]string{"Integridad_Auditoría", notAvailable, "No"},
			[3]string{"Incidencias_Auditoría", notAvailable, "No"},
		)
	}

	for _, r := range rows {
		if err := cw.Write(r[:]); err != nil {
			return fmt.Errorf("write csv row %s: %w", r[0], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func siNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

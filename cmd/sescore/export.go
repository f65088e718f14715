package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmaleg/sescore/internal/sescore/config"
	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/export"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

var (
	exportFlagInput  string
	exportFlagFormat string
	exportFlagTrail  string
	exportFlagOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a signature evidence file as package, CSV or report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		raw, err := os.ReadFile(exportFlagInput)
		if err != nil {
			return fmt.Errorf("read evidence: %w", err)
		}
		var sig evidence.SignatureEvidence
		if err := json.Unmarshal(raw, &sig); err != nil {
			return fmt.Errorf("decode evidence: %w", err)
		}

		// Optional accompanying trail export for the integrity section.
		var te *ledger.TrailExport
		if exportFlagTrail != "" {
			trailRaw, err := os.ReadFile(exportFlagTrail)
			if err != nil {
				return fmt.Errorf("read trail export: %w", err)
			}
			te = &ledger.TrailExport{}
			if err := json.Unmarshal(trailRaw, te); err != nil {
				return fmt.Errorf("decode trail export: %w", err)
			}
			// Never trust a stale verification: recompute on export.
			te.Verification = ledger.VerifyTrail(te.Trail)
		}

		out := os.Stdout
		if exportFlagOutput != "" {
			out, err = os.Create(exportFlagOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()
		}

		switch exportFlagFormat {
		case "package":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(export.EvidencePackage(&sig, cfg.Export.LegalFramework))
		case "csv":
			var integrity *ledger.IntegrityResult
			if te != nil {
				integrity = &te.Verification
			}
			return export.WriteVerificationCSV(out, &sig, integrity)
		case "report":
			return export.RenderReport(out, &sig, te, export.ReportOptions{
				BaseURL:        cfg.Export.VerifyBaseURL,
				LegalFramework: cfg.Export.LegalFramework,
				IncludeContent: true,
			})
		default:
			return fmt.Errorf("unknown format %q (want package, csv or report)", exportFlagFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlagInput, "input", "", "evidence JSON file (required)")
	exportCmd.Flags().StringVar(&exportFlagFormat, "format", "package", "output format: package, csv, report")
	exportCmd.Flags().StringVar(&exportFlagTrail, "trail", "", "trail export JSON file for the integrity section")
	exportCmd.Flags().StringVar(&exportFlagOutput, "output", "", "output file (default stdout)")
	exportCmd.MarkFlagRequired("input")
}

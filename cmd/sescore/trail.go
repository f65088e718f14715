package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmaleg/sescore/internal/sescore/config"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

var (
	trailFlagResource string
	trailFlagInput    string
)

var trailCmd = &cobra.Command{
	Use:   "trail",
	Short: "Inspect and verify audit trails",
}

var trailVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a trail's hash chain, either from the store or an export file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var res ledger.IntegrityResult

		switch {
		case trailFlagInput != "":
			// Offline: re-verify an exported snapshot without a store.
			raw, err := os.ReadFile(trailFlagInput)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			var te ledger.TrailExport
			if err := json.Unmarshal(raw, &te); err != nil {
				return fmt.Errorf("decode export: %w", err)
			}
			res = ledger.VerifyTrail(te.Trail)

		case trailFlagResource != "":
			cfg := config.Get()
			store, closeStore, err := newTrailStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			res, err = ledger.New(store).VerifyIntegrity(trailFlagResource)
			if err != nil {
				return err
			}

		default:
			return fmt.Errorf("either --resource or --input is required")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.IsValid {
			os.Exit(2)
		}
		return nil
	},
}

var trailExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a trail snapshot with a fresh verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		if trailFlagResource == "" {
			return fmt.Errorf("--resource is required")
		}
		cfg := config.Get()
		store, closeStore, err := newTrailStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		te, err := ledger.New(store).ExportTrail(trailFlagResource)
		if err != nil {
			return err
		}
		if te == nil {
			return fmt.Errorf("unknown trail %q", trailFlagResource)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(te)
	},
}

func init() {
	trailCmd.PersistentFlags().StringVar(&trailFlagResource, "resource", "", "resource id of the trail")
	trailVerifyCmd.Flags().StringVar(&trailFlagInput, "input", "", "trail export JSON file (offline verification)")
	trailCmd.AddCommand(trailVerifyCmd)
	trailCmd.AddCommand(trailExportCmd)
}

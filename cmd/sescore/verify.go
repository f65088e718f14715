package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/verifier"
)

var (
	verifyFlagInput string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a signature evidence JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(verifyFlagInput)
		if err != nil {
			return fmt.Errorf("read evidence: %w", err)
		}
		var sig evidence.SignatureEvidence
		if err := json.Unmarshal(raw, &sig); err != nil {
			return fmt.Errorf("decode evidence: %w", err)
		}

		res := verifier.Verify(&sig)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Valid {
			// Non-zero exit so scripts can gate on full validity.
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFlagInput, "input", "", "evidence JSON file (required)")
	verifyCmd.MarkFlagRequired("input")
}

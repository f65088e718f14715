package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firmaleg/sescore/internal/sescore/config"
	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
)

var (
	signFlagDocument   string
	signFlagOutput     string
	signFlagMethod     string
	signFlagIdentifier string
	signFlagName       string
	signFlagValue      string
	signFlagSigMethod  string
	signFlagIP         string
	signFlagUserAgent  string
	signFlagConsent    bool
	signFlagIntent     bool
	signFlagRetain     bool
	signFlagResource   string
	signFlagSeal       bool
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Create a signature evidence object for a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		content, err := os.ReadFile(signFlagDocument)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		store, closeStore, err := newTrailStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		led := ledger.New(store)
		builder := evidence.NewBuilder(newTSAClient(cfg), led)

		sig, err := builder.CreateSignature(context.Background(), evidence.CreateParams{
			SignerMethod:     signFlagMethod,
			SignerIdentifier: signFlagIdentifier,
			SignerName:       signFlagName,
			DocumentContent:  string(content),
			DocumentName:     signFlagDocument,
			SignatureValue:   signFlagValue,
			SignatureMethod:  signFlagSigMethod,
			IPAddress:        signFlagIP,
			UserAgent:        signFlagUserAgent,
			ConsentGiven:     signFlagConsent,
			IntentToBind:     signFlagIntent,
			RetainContent:    signFlagRetain,
			ResourceID:       signFlagResource,
		})
		if err != nil {
			return err
		}

		if signFlagSeal && signFlagResource != "" {
			if _, err := led.SealTrail(signFlagResource); err != nil {
				return fmt.Errorf("seal trail: %w", err)
			}
		}

		out := os.Stdout
		if signFlagOutput != "" {
			out, err = os.Create(signFlagOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sig)
	},
}

func init() {
	signCmd.Flags().StringVar(&signFlagDocument, "document", "", "path to the document to sign (required)")
	signCmd.Flags().StringVar(&signFlagOutput, "output", "", "evidence JSON output file (default stdout)")
	signCmd.Flags().StringVar(&signFlagMethod, "signer-method", evidence.MethodElectronic, "signer method: sms_code, handwritten, email_click, electronic")
	signCmd.Flags().StringVar(&signFlagIdentifier, "signer", "", "signer identifier, phone or email (required)")
	signCmd.Flags().StringVar(&signFlagName, "signer-name", "", "signer full name")
	signCmd.Flags().StringVar(&signFlagValue, "signature", "", "signature payload: image data or code (required)")
	signCmd.Flags().StringVar(&signFlagSigMethod, "signature-method", "drawn", "signature method")
	signCmd.Flags().StringVar(&signFlagIP, "ip", "127.0.0.1", "signer IP address")
	signCmd.Flags().StringVar(&signFlagUserAgent, "user-agent", "sescore-cli", "signer user agent")
	signCmd.Flags().BoolVar(&signFlagConsent, "consent", false, "consent was given")
	signCmd.Flags().BoolVar(&signFlagIntent, "intent", false, "intent to be bound was expressed")
	signCmd.Flags().BoolVar(&signFlagRetain, "retain-content", true, "retain document content inside the evidence object")
	signCmd.Flags().StringVar(&signFlagResource, "resource", "", "resource id to record the signing in the ledger")
	signCmd.Flags().BoolVar(&signFlagSeal, "seal", false, "seal the trail after signing")
	signCmd.MarkFlagRequired("document")
	signCmd.MarkFlagRequired("signer")
	signCmd.MarkFlagRequired("signature")
}

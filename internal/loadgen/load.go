// Package loadgen generates deterministic synthetic signing sessions for
// demos, load tests and SQL seed data.
package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
	"github.com/firmaleg/sescore/internal/sescore/tsa"
)

type LoadConfig struct {
	Seed       int64  `yaml:"seed"`
	Signatures int    `yaml:"signatures"`
	Output     string `yaml:"output"`    // NDJSON evidence objects
	SQLOutput  string `yaml:"sqlOutput"` // optional audit_trails seed file
	Driver     string `yaml:"driver"`    // postgres or mysql, for SQLOutput
}

func readLoadConfig(path string) (LoadConfig, error) {
	log.Printf("[DEBUG] Loading config from %s\n", path)
	var cfg LoadConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Signatures <= 0 {
		cfg.Signatures = 100
	}
	if cfg.Driver == "" {
		cfg.Driver = "postgres"
	}
	return cfg, nil
}

var signerMethods = []string{
	evidence.MethodSMSCode,
	evidence.MethodHandwritten,
	evidence.MethodEmailClick,
	evidence.MethodElectronic,
}

var contractTemplates = []string{
	"<p>Contrato de prestación de servicios entre %s y %s.</p>",
	"<p>Acuerdo de confidencialidad suscrito por %s con %s.</p>",
	"<p>Contrato de arrendamiento: %s cede el uso a %s.</p>",
	"<p>Orden de trabajo aceptada por %s para %s.</p>",
}

// Load generates synthetic signatures and writes them as NDJSON, plus an
// optional SQL seed file with the resulting audit trails.
func Load(configPath *string) {
	cfg, err := readLoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] Error loading config: %v", err)
	}

	// deterministic data if seed provided
	gofakeit.Seed(cfg.Seed)

	f, err := os.Create(cfg.Output)
	if err != nil {
		log.Fatalf("[FATAL] cannot create output file: %v", err)
	}
	defer f.Close()

	// No authorities configured: every timestamp is an explicit local
	// fallback, so generation works fully offline.
	builder := evidence.NewBuilder(tsa.NewClient(nil, 0), nil)
	store := ledger.NewMemoryStore()
	led := ledger.New(store)

	enc := json.NewEncoder(f)
	resourceIDs := make([]string, 0, cfg.Signatures)

	for i := 0; i < cfg.Signatures; i++ {
		signerName := gofakeit.Name()
		counterparty := gofakeit.Company()
		content := fmt.Sprintf(contractTemplates[gofakeit.Number(0, len(contractTemplates)-1)], signerName, counterparty)
		resourceID := gofakeit.UUID()

		sig, err := builder.CreateSignature(context.Background(), evidence.CreateParams{
			SignerMethod:     signerMethods[gofakeit.Number(0, len(signerMethods)-1)],
			SignerIdentifier: gofakeit.Email(),
			SignerName:       signerName,
			SignerEmail:      gofakeit.Email(),
			SignerPhone:      gofakeit.Phone(),
			DocumentContent:  content,
			DocumentName:     fmt.Sprintf("contrato-%04d.html", i+1),
			SignatureValue:   gofakeit.UUID(),
			SignatureMethod:  "drawn",
			IPAddress:        gofakeit.IPv4Address(),
			UserAgent:        gofakeit.UserAgent(),
			ConsentGiven:     true,
			IntentToBind:     true,
			AgreementText:    "Acepto firmar electrónicamente este documento.",
			RetainContent:    true,
		})
		if err != nil {
			log.Fatalf("[FATAL] generate signature %d: %v", i, err)
		}

		if err := seedTrail(led, resourceID, sig); err != nil {
			log.Fatalf("[FATAL] seed trail %d: %v", i, err)
		}
		resourceIDs = append(resourceIDs, resourceID)

		if err := enc.Encode(sig); err != nil {
			log.Fatalf("[FATAL] write signature %d: %v", i, err)
		}
	}

	if cfg.SQLOutput != "" {
		if err := writeSQLSeed(cfg, store, resourceIDs); err != nil {
			log.Fatalf("[FATAL] write SQL seed: %v", err)
		}
	}

	log.Printf("[INFO] Generation complete: signatures=%d output=%s", cfg.Signatures, cfg.Output)
}

func seedTrail(led *ledger.Ledger, resourceID string, sig *evidence.SignatureEvidence) error {
	if _, err := led.CreateTrail(resourceID, sig.Document.OriginalName); err != nil {
		return err
	}
	actor := ledger.Actor{ID: sig.Signer.Identifier, Type: ledger.ActorUser, Identifier: sig.Signer.Identifier}
	resource := ledger.Resource{Type: ledger.ResourceSignature, ID: sig.ID, Name: sig.Document.OriginalName}
	meta := ledger.RecordMetadata{IPAddress: sig.Signer.IPAddress, UserAgent: sig.Signer.UserAgent}

	for _, action := range []string{"document_viewed", "consent_given", "signature_created"} {
		if _, err := led.AddRecord(resourceID, action, actor, resource,
			map[string]string{"documentHash": sig.Document.Hash}, meta, nil); err != nil {
			return err
		}
	}
	_, err := led.SealTrail(resourceID)
	return err
}

func writeSQLSeed(cfg LoadConfig, store *ledger.MemoryStore, resourceIDs []string) error {
	f, err := os.Create(cfg.SQLOutput)
	if err != nil {
		return err
	}
	defer f.Close()

	if cfg.Driver == "postgres" {
		fmt.Fprintf(f, "-- Generated audit_trails seed for PostgreSQL\n")
		fmt.Fprintf(f, "-- Import with: psql -f %s\n\n", cfg.SQLOutput)
	} else {
		fmt.Fprintf(f, "-- Generated audit_trails seed for MySQL\n")
		fmt.Fprintf(f, "-- Import with: mysql < %s\n\n", cfg.SQLOutput)
	}

	for _, id := range resourceIDs {
		trail, ok, err := store.Get(id)
		if err != nil || !ok {
			return fmt.Errorf("missing trail %s", id)
		}
		raw, err := json.Marshal(trail)
		if err != nil {
			return err
		}
		fmt.Fprintf(f,
			"INSERT INTO audit_trails (resource_id, trail_json, is_sealed, updated_at) VALUES ('%s', '%s', %t, '%s');\n",
			id, sqlEscape(string(raw)), trail.IsSealed, trail.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// sqlEscape escapes single quotes for safe inline SQL generation.
func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

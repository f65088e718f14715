package main

import (
	"github.com/spf13/cobra"

	"github.com/firmaleg/sescore/internal/sescore/config"
	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/httpapi"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
	"github.com/firmaleg/sescore/internal/sescore/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP signing API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		store, closeStore, err := newTrailStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		led := ledger.New(store)
		h := &httpapi.Handler{
			Builder:        evidence.NewBuilder(newTSAClient(cfg), led),
			Store:          evidence.NewMemoryStore(),
			Ledger:         led,
			VerifyBaseURL:  cfg.Export.VerifyBaseURL,
			LegalFramework: cfg.Export.LegalFramework,
		}

		logger.L().Infow("http api listening", "addr", cfg.Server.Listen, "storage", cfg.Storage.Driver)
		return httpapi.NewRouter(h).Run(cfg.Server.Listen)
	},
}

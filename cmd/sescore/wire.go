package main

import (
	"fmt"

	"github.com/firmaleg/sescore/internal/sescore/config"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
	"github.com/firmaleg/sescore/internal/sescore/tsa"
)

func newTSAClient(cfg *config.Config) *tsa.Client {
	authorities := make([]tsa.Authority, 0, len(cfg.Timestamp.Authorities))
	for _, a := range cfg.Timestamp.Authorities {
		authorities = append(authorities, tsa.Authority{Name: a.Name, URL: a.URL})
	}
	return tsa.NewClient(authorities, cfg.Timestamp.AttemptTimeoutDuration())
}

// newTrailStore opens the configured trail store. The returned closer is a
// no-op for the memory backend.
func newTrailStore(cfg *config.Config) (ledger.TrailStore, func(), error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return ledger.NewMemoryStore(), func() {}, nil
	case "postgres", "mysql":
		s, err := ledger.OpenSQLStore(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

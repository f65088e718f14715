package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level string `mapstructure:"level"`
}

// AuthorityCfg identifies one timestamp authority endpoint.
// Authorities are tried in the order they appear in the config.
type AuthorityCfg struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type TimestampCfg struct {
	Authorities    []AuthorityCfg `mapstructure:"authorities"`
	AttemptTimeout string         `mapstructure:"attempt_timeout"`
}

// AttemptTimeoutDuration parses the per-authority timeout, falling back to 5s.
func (t TimestampCfg) AttemptTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(t.AttemptTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// StorageCfg selects the trail store backend.
// Driver is one of: memory, postgres, mysql.
type StorageCfg struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ExportCfg struct {
	VerifyBaseURL  string `mapstructure:"verify_base_url"`
	LegalFramework string `mapstructure:"legal_framework"`
}

type ServerCfg struct {
	Listen string `mapstructure:"listen"`
}

type Config struct {
	Version   string       `mapstructure:"version"`
	Timestamp TimestampCfg `mapstructure:"timestamp"`
	Storage   StorageCfg   `mapstructure:"storage"`
	Export    ExportCfg    `mapstructure:"export"`
	Server    ServerCfg    `mapstructure:"server"`
	Logging   LoggingCfg   `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("timestamp.attempt_timeout", "5s")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("export.verify_base_url", "https://firma.example.com")
	v.SetDefault("export.legal_framework", "Reglamento (UE) 910/2014 (eIDAS), art. 25")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}

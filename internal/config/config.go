// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

// Package config loads permitd configuration from YAML files, command-line
// flags, and environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values.
const (
	DefaultListenAddr  = ":8000"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
)

// Config holds the permitd runtime configuration.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string. Required.
	DatabaseURL string `koanf:"database_url"`

	// AdminAPIKey is the bearer credential for management endpoints.
	// Required; an absent value is a fatal startup error.
	AdminAPIKey string `koanf:"admin_api_key"`

	// AdminAPIKeyHashed marks AdminAPIKey as a bcrypt hash instead of a
	// plain secret.
	AdminAPIKeyHashed bool `koanf:"admin_api_key_hashed"`

	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string `koanf:"listen_addr"`

	// MetricsAddr is the observability listen address (empty disables it).
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// AutoMigrate applies pending schema migrations on serve startup.
	AutoMigrate bool `koanf:"auto_migrate"`

	// CORSOrigins are the allowed browser origins for the API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then flags, then environment variables. DATABASE_URL and
// ADMIN_API_KEY always win from the environment when set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		ListenAddr:  DefaultListenAddr,
		MetricsAddr: DefaultMetricsAddr,
		LogFormat:   DefaultLogFormat,
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.AdminAPIKey = v
	}
	if v := os.Getenv("ADMIN_API_KEY_HASHED"); v != "" {
		if hashed, err := strconv.ParseBool(v); err == nil {
			cfg.AdminAPIKeyHashed = hashed
		}
	}
	if v := os.Getenv("PERMITD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PERMITD_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

// Validate checks that the configuration is complete and coherent.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.AdminAPIKey == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("admin_api_key is required; set it in the config file or the ADMIN_API_KEY environment variable")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package config loads service configuration from an optional YAML
// file, environment variables, and command-line flags, in that order
// of precedence (flags win).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default listen addresses.
const (
	DefaultListenAddr  = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultSMTPPort    = 587
)

// SMTP holds outbound mail transport settings.
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// Config is the full service configuration.
type Config struct {
	ListenAddr    string        `koanf:"listen_addr"`
	MetricsAddr   string        `koanf:"metrics_addr"`
	DatabaseURL   string        `koanf:"database_url"`
	SessionSecret string        `koanf:"session_secret"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	LogFormat     string        `koanf:"log_format"`
	SMTP          SMTP          `koanf:"smtp"`
}

// Load builds a Config. path may be empty (no config file). flags may
// be nil; when present, set flags override file values, with dashes in
// flag names mapped to underscores in config keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		ListenAddr:  DefaultListenAddr,
		MetricsAddr: DefaultMetricsAddr,
		LogFormat:   DefaultLogFormat,
		SMTP:        SMTP{Port: DefaultSMTPPort},
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		err := k.Load(posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		}), nil)
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "merge flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal").
			Wrap(err)
	}

	// Secrets come from the environment when set, never from flags.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("AUTHD_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("AUTHD_SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}

	return cfg, nil
}

// Validate checks the fields required to serve traffic.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr is required")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required (or set DATABASE_URL)")
	}
	if c.SessionSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("session_secret is required (or set AUTHD_SESSION_SECRET)")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	return nil
}

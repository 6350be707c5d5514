// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		ListenAddr:    ":8080",
		DatabaseURL:   "postgres://localhost/authd",
		SessionSecret: "secret",
		LogFormat:     "json",
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults with no file or flags", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
		assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
		assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
		assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
listen_addr: ":9999"
log_format: text
session_ttl: 2h
smtp:
  host: mail.example.com
  port: 465
  from: noreply@example.com
`)
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
		assert.Equal(t, 465, cfg.SMTP.Port)
		assert.Equal(t, "noreply@example.com", cfg.SMTP.From)
		assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr, "unset keys keep defaults")
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		assert.Error(t, err)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeConfigFile(t, "listen_addr: [unclosed")
		_, err := Load(path, nil)
		assert.Error(t, err)
	})

	t.Run("set flags override file values", func(t *testing.T) {
		path := writeConfigFile(t, `listen_addr: ":9999"`)

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("listen-addr", DefaultListenAddr, "")
		flags.String("log-format", DefaultLogFormat, "")
		require.NoError(t, flags.Parse([]string{"--listen-addr", ":7777"}))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.ListenAddr, "flag wins over file")
	})

	t.Run("environment supplies secrets", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env-host/authd")
		t.Setenv("AUTHD_SESSION_SECRET", "env-secret")
		t.Setenv("AUTHD_SMTP_PASSWORD", "env-smtp-pass")

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env-host/authd", cfg.DatabaseURL)
		assert.Equal(t, "env-secret", cfg.SessionSecret)
		assert.Equal(t, "env-smtp-pass", cfg.SMTP.Password)
	})

	t.Run("environment overrides file for secrets", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env-host/authd")
		path := writeConfigFile(t, `database_url: postgres://file-host/authd`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env-host/authd", cfg.DatabaseURL)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing listen addr", func(t *testing.T) {
		cfg := validConfig()
		cfg.ListenAddr = ""
		assert.ErrorContains(t, cfg.Validate(), "listen_addr")
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabaseURL = ""
		assert.ErrorContains(t, cfg.Validate(), "database_url")
	})

	t.Run("missing session secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "session_secret")
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogFormat = "xml"
		assert.ErrorContains(t, cfg.Validate(), "log_format")
	})

	t.Run("text log format allowed", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogFormat = "text"
		assert.NoError(t, cfg.Validate())
	})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/kurulus/authd/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// configPath returns the --config flag value, falling back to the XDG
// default location when the flag is unset and the file exists.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return xdg.DefaultConfigFile()
}

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - credential authentication service",
		Long: `authd is a small HTTP service providing signup, login, stateless
session tokens, and an OTP-based password reset flow backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kurulus/authd/internal/account"
	accountpg "github.com/kurulus/authd/internal/account/postgres"
	"github.com/kurulus/authd/internal/config"
	"github.com/kurulus/authd/internal/httpapi"
	"github.com/kurulus/authd/internal/logging"
	"github.com/kurulus/authd/internal/mail"
	"github.com/kurulus/authd/internal/observability"
	"github.com/kurulus/authd/internal/session"
	"github.com/kurulus/authd/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication HTTP server",
		Long: `Start the HTTP server exposing signup, login, logout and the
password reset endpoints, plus a separate metrics/health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(), cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().String("listen-addr", config.DefaultListenAddr, "HTTP listen address")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or text)")

	return cmd
}

// runServe wires the service together and blocks until shutdown.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("authd", version, cfg.LogFormat)

	slog.Info("starting authd",
		"listen_addr", cfg.ListenAddr,
		"log_format", cfg.LogFormat,
	)

	// The pool is the single piece of process-wide state. It is
	// created here, once, and handed to the repositories.
	pool, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	users := accountpg.NewUserRepository(pool)
	hasher := account.NewArgon2idHasher()

	accounts, err := account.NewService(users, hasher)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	notifier, err := mail.NewSMTPNotifier(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		return fmt.Errorf("failed to create mail notifier: %w", err)
	}

	resets, err := account.NewResetService(users, hasher, notifier)
	if err != nil {
		return fmt.Errorf("failed to create reset service: %w", err)
	}

	issuer, err := session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to create session issuer: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured.
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
			defer pingCancel()
			return store.Ping(pingCtx, pool) == nil
		})
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				slog.Warn("failed to stop observability server", "error", stopErr)
			}
		}()
		go func() {
			if obsErr := <-obsErrChan; obsErr != nil {
				slog.Error("observability server error", "error", obsErr)
				cancel()
			}
		}()
		metrics = obsServer.Metrics()
	}

	handler := httpapi.NewHandler(accounts, resets, issuer, cfg.SessionTTL, metrics, slog.Default())
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("authd started")
	slog.Info("authd ready", "listen_addr", cfg.ListenAddr)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	slog.Info("authd stopped")
	return nil
}

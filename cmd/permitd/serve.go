// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/permitd/permitd/internal/api"
	"github.com/permitd/permitd/internal/authz"
	"github.com/permitd/permitd/internal/config"
	"github.com/permitd/permitd/internal/logging"
	"github.com/permitd/permitd/internal/observability"
	"github.com/permitd/permitd/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authorization API server",
		Long: `Start the HTTP server that evaluates access requests against the
active policy and exposes the policy and role management API.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen_addr", config.DefaultListenAddr, "HTTP listen address")
	cmd.Flags().String("metrics_addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log_format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().Bool("auto_migrate", false, "apply pending schema migrations on startup")
	cmd.Flags().StringSlice("cors_origins", nil, "allowed CORS origins")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.Setup("permitd", version, cfg.LogFormat, os.Stderr)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	slog.Info("starting permitd",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	if cfg.AutoMigrate {
		if err := autoMigrate(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	// Repositories over the shared pool.
	roleRepo := store.NewRoleRepository(pool)
	policyRepo := store.NewPolicyRepository(pool)
	auditRepo := store.NewAuditRepository(pool)

	// Decision pipeline.
	cache := authz.NewActivePolicyCache()
	roleGraph := authz.NewRoleGraph(roleRepo)
	registry := authz.NewPolicyRegistry(policyRepo, cache)
	auditor := authz.NewAuditor(auditRepo)
	decisions := authz.NewDecisionService(cache, registry, roleGraph, auditor)

	apiServer := api.NewServer(cfg, decisions, registry, roleGraph, cache, pool, version)
	apiErrChan := apiServer.Start()
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	slog.Info("API server listening", "addr", cfg.ListenAddr)

	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return pool.Ping(ctx) == nil
		})
		authz.RegisterMetrics(obsServer.Registry())

		obsErrChan, err := obsServer.Start()
		if err != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := apiServer.Stop(stopCtx); stopErr != nil {
				slog.Warn("failed to stop API server during cleanup", "error", stopErr)
			}
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("permitd started")

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// autoMigrate applies pending migrations before the server accepts traffic.
func autoMigrate(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
	}

	v, dirty, err := migrator.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	slog.Info("schema up to date", "version", v, "dirty", dirty)
	return nil
}

// monitorServerErrors watches a server error channel and cancels the run
// context on failure so the process shuts down as a unit.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/observability"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/retention"
	"github.com/holomush/frameguard/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled retention and the metrics endpoints",
		Long: `Open the lock database, purge old locks on the configured schedule and
serve /metrics and /healthz probes until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, deps)
		},
	}
}

// sidecarMetrics lists the registrars served by serve. Decision and intent
// metrics belong to the process that embeds the engine; the sidecar only
// purges and probes the store.
func sidecarMetrics() []observability.Registrar {
	return []observability.Registrar{retention.RegisterMetrics, protect.RegisterMetrics}
}

func runServe(cmd *cobra.Command, deps *Deps) error {
	e, err := prepare(cmd, deps)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	// Building the engine checks the protection settings before serving.
	if _, _, err := e.newEngine(store); err != nil {
		return err
	}

	sweeper := retention.NewSweeper(e.cfg.RetentionConfig(), store, e.logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	var obsErr <-chan error
	if e.cfg.MetricsAddr != "" {
		server := observability.NewServer(e.cfg.MetricsAddr, store.Ping, e.logger, sidecarMetrics()...)
		obsErr, err = server.Start()
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := server.Stop(stopCtx); err != nil {
				errutil.LogError(e.logger, "stop observability server", err)
			}
		}()
		cmd.Printf("Serving metrics on %s\n", server.Addr())
	}

	e.logger.Info("frameguard serving",
		"driver", e.cfg.Storage.Driver,
		"retention_days", e.cfg.Retention.MaxAgeDays,
		"metrics_addr", e.cfg.MetricsAddr,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		e.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		e.logger.Info("context cancelled, shutting down")
	case err, ok := <-obsErr:
		if ok && err != nil {
			return err
		}
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/config"
	"github.com/holomush/frameguard/internal/logging"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/protect/postgres"
	"github.com/holomush/frameguard/internal/protect/sqlite"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values use their default implementations.
type Deps struct {
	// StoreOpener opens the configured protection store.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg config.Storage, logger *slog.Logger) (protect.Store, error)

	// MigratorFactory creates a PostgreSQL schema migrator.
	// Default: postgres.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// Getenv reads environment variables.
	// Default: os.Getenv
	Getenv func(string) string

	// LogOutput receives log records.
	// Default: the command's stderr
	LogOutput io.Writer
}

// Migrator wraps the methods used from postgres.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]uint, error)
	Close() error
}

func withDefaults(deps *Deps) *Deps {
	out := Deps{}
	if deps != nil {
		out = *deps
	}
	if out.StoreOpener == nil {
		out.StoreOpener = openStore
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return postgres.NewMigrator(databaseURL)
		}
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	return &out
}

// env is the loaded configuration and logger shared by a command run.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	deps   *Deps
}

func prepare(cmd *cobra.Command, deps *Deps) (*env, error) {
	deps = withDefaults(deps)
	cfg, err := config.Load(config.LoadOptions{
		Path:   configFile,
		Flags:  cmd.Flags(),
		Getenv: deps.Getenv,
	})
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, oops.Code(config.CodeInvalid).Wrap(err)
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	out := deps.LogOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	logger := logging.Setup("frameguard", version, cfg.Log.Format, level, out)
	return &env{cfg: cfg, logger: logger, deps: deps}, nil
}

func (e *env) openStore(ctx context.Context) (protect.Store, error) {
	store, err := e.deps.StoreOpener(ctx, e.cfg.Storage, e.logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("driver", e.cfg.Storage.Driver).
			With("operation", "open protection store").
			Wrap(err)
	}
	return store, nil
}

func openStore(ctx context.Context, cfg config.Storage, logger *slog.Logger) (protect.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DSN, postgres.Options{
			QueryTimeout:    cfg.QueryTimeout,
			ConnectAttempts: cfg.ConnectAttempts,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlite.Open(ctx, cfg.Path, sqlite.Options{
			QueryTimeout: cfg.QueryTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

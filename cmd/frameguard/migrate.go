// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/config"
)

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply all pending schema migrations. PostgreSQL schemas are versioned
with golang-migrate; SQLite schemas are created in place and need no
versioning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, deps)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied and pending migration versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateStatus(cmd, deps)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rolled back all migrations")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	})
	return cmd
}

func runMigrateUp(cmd *cobra.Command, deps *Deps) error {
	e, err := prepare(cmd, deps)
	if err != nil {
		return err
	}
	if e.cfg.Storage.Driver == config.DriverSQLite {
		store, err := e.openStore(cmd.Context())
		if err != nil {
			return err
		}
		store.Close()
		cmd.Printf("SQLite schema ready at %s\n", e.cfg.Storage.Path)
		return nil
	}
	return withMigratorEnv(cmd, e, func(m Migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, deps *Deps) error {
	return withMigrator(cmd, deps, func(m Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		pending, err := m.Pending()
		if err != nil {
			return err
		}
		cmd.Printf("Current version: %d", version)
		if dirty {
			cmd.Print(" (dirty)")
		}
		cmd.Println()
		if len(pending) == 0 {
			cmd.Println("No pending migrations")
			return nil
		}
		cmd.Printf("Pending: %s\n", joinVersions(pending))
		return nil
	})
}

func withMigrator(cmd *cobra.Command, deps *Deps, fn func(Migrator) error) error {
	e, err := prepare(cmd, deps)
	if err != nil {
		return err
	}
	if e.cfg.Storage.Driver != config.DriverPostgres {
		return oops.Code("UNSUPPORTED_DRIVER").
			With("driver", e.cfg.Storage.Driver).
			Errorf("versioned migrations need the postgres driver")
	}
	return withMigratorEnv(cmd, e, fn)
}

func withMigratorEnv(_ *cobra.Command, e *env, fn func(Migrator) error) (err error) {
	m, err := e.deps.MigratorFactory(e.cfg.Storage.DSN)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := fn(m); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

// parseForceVersion parses the VERSION argument of migrate force.
func parseForceVersion(arg string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Errorf("version must be an integer: %q", arg)
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Errorf("version must not be negative: %d", v)
	}
	return v, nil
}

func joinVersions(versions []uint) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ", ")
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sqlite implements protect.Store on an embedded SQLite file, for
// single-server deployments that do not run PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	// Register the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

// Options configures a Store.
type Options struct {
	// QueryTimeout bounds every statement. Zero disables the bound.
	QueryTimeout time.Duration
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Store implements protect.Store on SQLite.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
	clock   func() time.Time
}

var _ protect.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. The connection pool is limited to one connection, which
// serializes writers.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("empty sqlite path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, oops.Code("MIGRATION_FAILED").With("path", path).Wrap(err)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		db:      db,
		timeout: opts.QueryTimeout,
		logger:  opts.Logger.With("component", "protect.sqlite"),
		clock:   opts.Clock,
	}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close sqlite", "error", err)
	}
}

func (s *Store) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) fail(operation string, err error, attrs ...any) error {
	converted := protect.StorageError(operation, err)
	errutil.LogError(s.logger, "storage operation failed", converted, append(attrs, "cause", err.Error())...)
	return converted
}

func (s *Store) now() int64 {
	return s.clock().UTC().Unix()
}

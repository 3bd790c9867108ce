// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements protect.Store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

// poolIface is the subset of *pgxpool.Pool the store uses, so pgxmock can
// stand in for it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Options configures a Store.
type Options struct {
	// QueryTimeout bounds every statement. Zero disables the bound.
	QueryTimeout time.Duration
	// ConnectAttempts is the number of connection attempts made by Open.
	ConnectAttempts uint64
	Logger          *slog.Logger
	// Clock supplies created_at values and the purge reference time.
	Clock func() time.Time
}

// Store implements protect.Store using PostgreSQL.
type Store struct {
	pool    poolIface
	timeout time.Duration
	logger  *slog.Logger
	clock   func() time.Time
}

// Compile-time check that Store implements protect.Store.
var _ protect.Store = (*Store)(nil)

// New creates a Store over an existing pool.
func New(pool poolIface, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		pool:    pool,
		timeout: opts.QueryTimeout,
		logger:  opts.Logger.With("component", "protect.postgres"),
		clock:   opts.Clock,
	}
}

// Open connects to dsn, retrying with exponential backoff until the server
// answers a ping or the attempts are exhausted.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	if opts.ConnectAttempts == 0 {
		opts.ConnectAttempts = 1
	}

	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(opts.ConnectAttempts-1, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code(protect.CodeStorageUnavailable).
			With("operation", "connect").
			With("attempts", opts.ConnectAttempts).
			Wrapf(protect.ErrStorageUnavailable, "connect: %v", err)
	}
	return New(pool, opts), nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// bounded applies the query timeout to ctx.
func (s *Store) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail logs a driver error and converts it into the storage taxonomy.
func (s *Store) fail(operation string, err error, attrs ...any) error {
	converted := protect.StorageError(operation, err)
	errutil.LogError(s.logger, "storage operation failed", converted, append(attrs, "cause", err.Error())...)
	return converted
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package retention removes protections older than a configured age.
package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

// Purger deletes old protections and cascades the rows they referenced.
type Purger interface {
	PurgeOlderThan(ctx context.Context, ageDays int) (int64, error)
}

// Config defines the scheduled retention policy.
type Config struct {
	MaxAgeDays int           // records older than this are purged; 0 disables scheduling
	Interval   time.Duration // how often the scheduled sweep runs
}

// DefaultConfig returns a disabled policy with a daily interval.
func DefaultConfig() Config {
	return Config{Interval: 24 * time.Hour}
}

// Enabled reports whether scheduled sweeping is on.
func (c Config) Enabled() bool {
	return c.MaxAgeDays > 0 && c.Interval > 0
}

var (
	// Purged counts protections removed by sweeps.
	Purged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frameguard_retention_purged_total",
		Help: "Protections removed by retention sweeps",
	})

	// Runs counts sweeps by result.
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frameguard_retention_runs_total",
			Help: "Retention sweeps by result",
		},
		[]string{"result"},
	)
)

// RegisterMetrics registers the retention metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Purged)
	reg.MustRegister(Runs)
}

// Sweeper purges old protections on demand or on a schedule.
type Sweeper struct {
	cfg    Config
	purger Purger
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a sweeper. A nil logger uses slog.Default.
func NewSweeper(cfg Config, purger Purger, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:    cfg,
		purger: purger,
		logger: logger.With("component", "retention"),
	}
}

// Purge removes every protection created more than days ago and returns how
// many were removed. Running it twice with the same horizon removes nothing
// the second time.
func (s *Sweeper) Purge(ctx context.Context, days int) (int64, error) {
	if err := protect.ValidateAgeDays(days); err != nil {
		return 0, err
	}
	n, err := s.purger.PurgeOlderThan(ctx, days)
	if n > 0 {
		Purged.Add(float64(n))
	}
	if err != nil {
		Runs.WithLabelValues("error").Inc()
		return n, oops.Code("PURGE_FAILED").With("days", days).With("removed", n).Wrap(err)
	}
	Runs.WithLabelValues("ok").Inc()
	s.logger.InfoContext(ctx, "purge complete", "days", days, "removed", n)
	return n, nil
}

// RunOnce executes a single scheduled sweep with the configured horizon.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	_, err := s.Purge(ctx, s.cfg.MaxAgeDays)
	return err
}

// Start begins periodic sweeping. It is a no-op when the policy is disabled
// or the sweeper is already running.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.cfg.Enabled() {
		s.logger.Debug("scheduled retention disabled")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		errutil.LogError(s.logger, "retention sweep failed", err)
	}
}

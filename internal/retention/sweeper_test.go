// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockPurger struct {
	mu      sync.Mutex
	calls   int
	days    []int
	removed int64
	err     error
	called  chan struct{}
}

func (m *mockPurger) PurgeOlderThan(_ context.Context, ageDays int) (int64, error) {
	m.mu.Lock()
	m.calls++
	m.days = append(m.days, ageDays)
	removed, err := m.removed, m.err
	m.mu.Unlock()
	if m.called != nil {
		select {
		case m.called <- struct{}{}:
		default:
		}
	}
	return removed, err
}

func (m *mockPurger) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_Purge(t *testing.T) {
	purger := &mockPurger{removed: 3}
	s := NewSweeper(DefaultConfig(), purger, quietLogger())
	before := testutil.ToFloat64(Purged)

	n, err := s.Purge(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []int{7}, purger.days)
	assert.Equal(t, before+3, testutil.ToFloat64(Purged))
}

func TestSweeper_PurgeRejectsNegativeDays(t *testing.T) {
	purger := &mockPurger{}
	s := NewSweeper(DefaultConfig(), purger, quietLogger())

	_, err := s.Purge(context.Background(), -1)
	errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
	assert.Zero(t, purger.callCount())
}

func TestSweeper_PurgeRejectsHorizonAboveCap(t *testing.T) {
	purger := &mockPurger{}
	s := NewSweeper(DefaultConfig(), purger, quietLogger())

	_, err := s.Purge(context.Background(), protect.MaxAgeDays+1)
	errutil.AssertErrorCode(t, err, protect.CodeInvalidArgument)
	assert.Zero(t, purger.callCount())
}

func TestSweeper_PurgeFailure(t *testing.T) {
	cause := errors.New("database is locked")
	purger := &mockPurger{err: cause}
	s := NewSweeper(DefaultConfig(), purger, quietLogger())
	before := testutil.ToFloat64(Runs.WithLabelValues("error"))

	_, err := s.Purge(context.Background(), 30)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "PURGE_FAILED")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before+1, testutil.ToFloat64(Runs.WithLabelValues("error")))
}

func TestSweeper_RunOnceUsesConfiguredAge(t *testing.T) {
	purger := &mockPurger{}
	s := NewSweeper(Config{MaxAgeDays: 90, Interval: time.Hour}, purger, quietLogger())

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []int{90}, purger.days)
}

func TestSweeper_StartDisabledIsNoop(t *testing.T) {
	purger := &mockPurger{}
	s := NewSweeper(DefaultConfig(), purger, quietLogger())

	s.Start(context.Background())
	s.Stop()
	assert.Zero(t, purger.callCount())
}

func TestSweeper_StartRunsImmediatelyAndStops(t *testing.T) {
	purger := &mockPurger{called: make(chan struct{}, 1)}
	s := NewSweeper(Config{MaxAgeDays: 30, Interval: time.Hour}, purger, quietLogger())

	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case <-purger.called:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run on start")
	}
	s.Stop()
	s.Stop()
	assert.Equal(t, 1, purger.callCount())
}

func TestSweeper_StopsWithParentContext(t *testing.T) {
	purger := &mockPurger{err: errors.New("boom"), called: make(chan struct{}, 1)}
	s := NewSweeper(Config{MaxAgeDays: 1, Interval: 10 * time.Millisecond}, purger, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	<-purger.called
	cancel()
	s.Stop()
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, DefaultConfig().Enabled())
	assert.False(t, Config{MaxAgeDays: 5}.Enabled())
	assert.True(t, Config{MaxAgeDays: 5, Interval: time.Minute}.Enabled())
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	assert.Panics(t, func() { RegisterMetrics(reg) })
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package intent tracks the pending lock, unlock and info requests actors
// have armed with a command and not yet spent on a decoration.
package intent

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind is the action a pending intent performs when consumed.
type Kind int

// Intent kinds.
const (
	Lock Kind = iota + 1
	Unlock
	Info
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Lock:
		return "lock"
	case Unlock:
		return "unlock"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Pending is the gauge of armed intents across all trackers.
// Use RegisterMetrics to register it with a Prometheus registry.
var Pending = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "frameguard_pending_intents",
	Help: "Number of actors with an armed lock, unlock or info request",
})

// RegisterMetrics registers the intent metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Pending)
}

// Tracker holds at most one pending intent per actor, keyed by the actor's
// host UUID. It is safe for concurrent use; Take is an atomic
// read-and-clear, so an intent is consumed at most once.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]Kind
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]Kind)}
}

// Set arms kind for actor, replacing any earlier request.
func (t *Tracker) Set(actor string, kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[actor]; !ok {
		Pending.Inc()
	}
	t.pending[actor] = kind
}

// Take returns and clears the pending intent of actor.
func (t *Tracker) Take(actor string) (Kind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kind, ok := t.pending[actor]
	if ok {
		delete(t.pending, actor)
		Pending.Dec()
	}
	return kind, ok
}

// Has reports whether actor has a pending intent.
func (t *Tracker) Has(actor string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[actor]
	return ok
}

// Drop discards the pending intent of actor, e.g. on disconnect.
func (t *Tracker) Drop(actor string) {
	t.Take(actor)
}

// Len returns the number of actors with a pending intent.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

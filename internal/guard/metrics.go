// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Decisions counts decisions by notification kind, verdict and reason.
// Use RegisterMetrics to register it with a Prometheus registry.
var Decisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "frameguard_decisions_total",
		Help: "Total number of mediation decisions",
	},
	[]string{"kind", "verdict", "reason"},
)

// DecisionDuration is the latency of Decide by notification kind.
var DecisionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "frameguard_decision_duration_seconds",
		Help:    "Mediation decision latency in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// Effects counts consumed intents by kind and outcome message.
var Effects = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "frameguard_intent_effects_total",
		Help: "Total number of lock, unlock and info effects performed",
	},
	[]string{"intent", "outcome"},
)

// RegisterMetrics registers the guard metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Decisions)
	reg.MustRegister(DecisionDuration)
	reg.MustRegister(Effects)
}

func recordDecision(d Decision, elapsed time.Duration) {
	kind := d.Kind.String()
	Decisions.WithLabelValues(kind, d.Verdict.String(), d.Reason).Inc()
	DecisionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

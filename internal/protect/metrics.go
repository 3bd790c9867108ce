// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protect

import "github.com/prometheus/client_golang/prometheus"

// StorageFailures counts driver errors converted by StorageError.
var StorageFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "frameguard_storage_failures_total",
		Help: "Storage operations that failed, by operation and error code",
	},
	[]string{"operation", "code"},
)

// RegisterMetrics registers the storage metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(StorageFailures)
}

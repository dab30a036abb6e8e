// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for the decision pipeline.
var (
	// evaluateDuration tracks end-to-end Authorize latency.
	evaluateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "permitd_authorize_duration_seconds",
		Help:    "Histogram of authorization decision latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// decisionsTotal counts decisions by outcome.
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permitd_decisions_total",
		Help: "Total number of authorization decisions",
	}, []string{"decision"})

	// cacheLookups counts active-policy cache hits and misses.
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permitd_policy_cache_lookups_total",
		Help: "Total number of active-policy cache lookups",
	}, []string{"result"})

	// auditFailures counts audit rows that could not be written.
	auditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "permitd_audit_failures_total",
		Help: "Total number of audit log write failures",
	})
)

// RegisterMetrics registers decision-pipeline metrics with the given
// Prometheus registry. Call once at startup.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(evaluateDuration, decisionsTotal, cacheLookups, auditFailures)
}

// recordDecision records metrics for a completed Authorize call.
func recordDecision(duration time.Duration, decision bool) {
	evaluateDuration.Observe(duration.Seconds())
	if decision {
		decisionsTotal.WithLabelValues("allow").Inc()
	} else {
		decisionsTotal.WithLabelValues("deny").Inc()
	}
}

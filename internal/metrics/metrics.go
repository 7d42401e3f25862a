// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Package metrics provides Prometheus instrumentation for the detection
// pipeline: engine throughput, per-rule outcomes, and context-provider
// storage health.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsEvaluated counts engine invocations (one per session event).
	SessionsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracearr_sessions_evaluated_total",
			Help: "Total number of sessions evaluated by the detection engine",
		},
	)

	// RuleEvaluations counts per-rule evaluation outcomes.
	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearr_rule_evaluations_total",
			Help: "Total number of rule evaluations by rule type and outcome",
		},
		[]string{"rule_type", "violated"},
	)

	// EvaluationDuration observes full engine invocation latency. The
	// engine runs on the session hot path, so buckets skew small.
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracearr_evaluation_duration_seconds",
			Help:    "Duration of full detection engine invocations",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		},
	)

	// ContextQueryDuration observes session history queries.
	ContextQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracearr_context_query_duration_seconds",
			Help:    "Duration of session context provider queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ContextQueryErrors counts session history query failures.
	ContextQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearr_context_query_errors_total",
			Help: "Total number of session context provider query errors",
		},
		[]string{"operation"},
	)

	// ContextBreakerState reports the history circuit breaker state
	// (0=closed, 1=half-open, 2=open).
	ContextBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracearr_context_breaker_state",
			Help: "Session history circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// ObserveRuleEvaluation records one rule evaluation outcome.
func ObserveRuleEvaluation(ruleType string, violated bool) {
	RuleEvaluations.WithLabelValues(ruleType, strconv.FormatBool(violated)).Inc()
}

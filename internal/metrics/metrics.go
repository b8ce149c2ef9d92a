// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts scored requests by endpoint.
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "churnsight_predictions_total",
		Help: "Number of scored prediction requests by endpoint.",
	}, []string{"endpoint"})

	// CounterfactualsTotal counts counterfactual results by method.
	CounterfactualsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "churnsight_counterfactuals_total",
		Help: "Number of counterfactual results by resolution method.",
	}, []string{"method"})

	// ScoringDuration observes single-vector scoring latency.
	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "churnsight_scoring_duration_seconds",
		Help:    "Latency of single-vector scoring.",
		Buckets: prometheus.DefBuckets,
	})

	// SearchDuration observes counterfactual search latency, which carries
	// its own wall-clock budget.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "churnsight_counterfactual_search_duration_seconds",
		Help:    "Latency of the counterfactual genetic search.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// AuditFailuresTotal counts swallowed prediction-log write failures.
	AuditFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "churnsight_audit_failures_total",
		Help: "Number of prediction audit-log writes that failed and were dropped.",
	})
)

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// oracleRequests counts transport attempts by provider and result.
	oracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matclass_oracle_requests_total",
		Help: "Oracle transport attempts by provider and result",
	}, []string{"provider", "result"}) // result: ok, retryable, error

	oracleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matclass_oracle_request_duration_seconds",
		Help:    "Oracle transport latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	}, []string{"provider"})

	// oracleDecisions counts parsed oracle answers by kind.
	oracleDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matclass_oracle_decisions_total",
		Help: "Oracle decisions by kind",
	}, []string{"kind"}) // match, no_match, invalid

	classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matclass_classifications_total",
		Help: "Completed classifications by outcome",
	}, []string{"source", "outcome"}) // outcome: resolved, unresolved

	classificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matclass_classification_duration_seconds",
		Help:    "End-to-end classification duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	pathDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matclass_classification_path_depth",
		Help:    "Depth of the final node of each classification",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8},
	})

	backtracks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matclass_backtracks_total",
		Help: "Branches abandoned during navigation",
	})
)

// ObserveOracleCall records one transport attempt.
func ObserveOracleCall(provider, result string, d time.Duration) {
	oracleRequests.WithLabelValues(provider, result).Inc()
	oracleDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveDecision records one oracle answer after parsing.
func ObserveDecision(kind string) {
	oracleDecisions.WithLabelValues(kind).Inc()
}

// ObserveClassification records a finished classification. source is
// "api", "batch" or "cli".
func ObserveClassification(source string, resolved bool, depth, nBacktracks int, d time.Duration) {
	outcome := "unresolved"
	if resolved {
		outcome = "resolved"
	}
	classifications.WithLabelValues(source, outcome).Inc()
	classificationDuration.Observe(d.Seconds())
	pathDepth.Observe(float64(depth))
	backtracks.Add(float64(nBacktracks))
}

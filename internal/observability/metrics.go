// Package observability exposes prometheus metrics for the evaluation
// engine and its HTTP wrapper.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moulinette_evaluations_total",
			Help: "Completed evaluations by kind and overall result.",
		},
		[]string{"kind", "result"},
	)

	evaluationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moulinette_evaluation_duration_seconds",
			Help:    "Duration of full evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"kind"},
	)

	criterionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moulinette_criterion_duration_seconds",
			Help:    "Duration of single criterion evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"regulation", "criterion"},
	)

	criterionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moulinette_criterion_failures_total",
			Help: "Criterion runs degraded to non_disponible, by reason.",
		},
		[]string{"regulation", "criterion", "reason"},
	)

	refdataReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refdata_reloads_total",
			Help: "Reference-data reloads triggered by invalidation events.",
		},
		[]string{"op", "status"},
	)

	refdataReloadDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refdata_reload_duration_seconds",
			Help:    "Duration of reference-data reloads in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	hedgeStoreResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_store_results_total",
			Help: "Hedge document store operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveEvaluation(kind, result string, d time.Duration) {
	evaluationsTotal.WithLabelValues(kind, result).Inc()
	evaluationDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

func ObserveCriterion(regulation, criterion string, d time.Duration) {
	criterionDurationSeconds.WithLabelValues(regulation, criterion).Observe(d.Seconds())
}

func IncCriterionFailure(regulation, criterion, reason string) {
	criterionFailuresTotal.WithLabelValues(regulation, criterion, reason).Inc()
}

func ObserveReload(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	refdataReloadsTotal.WithLabelValues(op, status).Inc()
	refdataReloadDurationSeconds.Observe(d.Seconds())
}

func IncHedgeStore(op, outcome string) {
	hedgeStoreResults.WithLabelValues(op, outcome).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

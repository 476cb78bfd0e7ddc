package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initQueryMetrics() {
	r.AreaQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "waternet_area_queries_total",
			Help: "Total number of area queries by executor and outcome",
		},
		[]string{"executor", "outcome"},
	)

	r.AreaQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waternet_area_query_duration_seconds",
			Help:    "Area query duration in seconds, encoding included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"executor"},
	)

	r.AreaQueryMatches = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waternet_area_query_matches",
			Help:    "Number of assets selected per area query",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	r.AreaQueryState = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "waternet_area_query_state_transitions_total",
			Help: "Area query state machine transitions by target state",
		},
		[]string{"state"},
	)

	r.EncodedBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waternet_encoded_bytes",
			Help:    "Size of the geo index envelope handed to an executor",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	r.WorkerPoolActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "waternet_worker_pool_active",
			Help: "Area query jobs currently running on the worker pool",
		},
	)

	r.WorkerPoolRejected = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "waternet_worker_pool_rejected_total",
			Help: "Area query jobs refused by a closed worker pool",
		},
	)
}

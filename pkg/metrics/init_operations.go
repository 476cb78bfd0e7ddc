package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOperationMetrics() {
	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "waternet_operations_total",
			Help: "Total number of model operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waternet_operation_duration_seconds",
			Help:    "Model operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"operation"},
	)

	r.DiffAssets = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waternet_diff_assets",
			Help:    "Assets put or deleted by one operation",
			Buckets: []float64{1, 2, 5, 10, 100, 1000},
		},
		[]string{"operation"},
	)
}

func (r *Registry) initModelMetrics() {
	r.ModelAssets = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waternet_model_assets",
			Help: "Assets in the current snapshot by type",
		},
		[]string{"type"},
	)

	r.ModelCustomerPoints = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "waternet_model_customer_points",
			Help: "Customer points in the current snapshot",
		},
	)
}

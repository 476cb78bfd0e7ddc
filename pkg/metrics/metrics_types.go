package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Area query metrics
	AreaQueriesTotal   *prometheus.CounterVec
	AreaQueryDuration  *prometheus.HistogramVec
	AreaQueryMatches   prometheus.Histogram
	AreaQueryState     *prometheus.CounterVec
	EncodedBytes       prometheus.Histogram
	WorkerPoolActive   prometheus.Gauge
	WorkerPoolRejected prometheus.Counter

	// Model operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	DiffAssets        *prometheus.HistogramVec

	// Model snapshot metrics
	ModelAssets         *prometheus.GaugeVec
	ModelCustomerPoints prometheus.Gauge

	// Process session metrics
	SessionSeconds  prometheus.Gauge
	Goroutines      prometheus.Gauge
	HeapAllocBytes  prometheus.Gauge
	RuntimeSysBytes prometheus.Gauge
	GCCycles        prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		started:  time.Now(),
	}

	// Initialize all metrics
	r.initQueryMetrics()
	r.initOperationMetrics()
	r.initModelMetrics()
	r.initSessionMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

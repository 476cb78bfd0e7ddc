package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initSessionMetrics registers the gauges sampled by UpdateSystemMetrics.
// They describe the process holding the model, not the model itself.
func (r *Registry) initSessionMetrics() {
	factory := promauto.With(r.registry)
	for _, g := range []struct {
		dst        *prometheus.Gauge
		name, help string
	}{
		{&r.SessionSeconds, "waternet_session_seconds", "Seconds since the model session opened"},
		{&r.Goroutines, "waternet_goroutines", "Live goroutines, area query workers included"},
		{&r.HeapAllocBytes, "waternet_heap_alloc_bytes", "Heap bytes in use, encoded geo index buffers included"},
		{&r.RuntimeSysBytes, "waternet_runtime_sys_bytes", "Bytes the Go runtime has obtained from the OS"},
		{&r.GCCycles, "waternet_gc_cycles", "Completed garbage collection cycles"},
	} {
		*g.dst = factory.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help})
	}
}

// UpdateSystemMetrics samples the Go runtime
func (r *Registry) UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r.SessionSeconds.Set(time.Since(r.started).Seconds())
	r.Goroutines.Set(float64(runtime.NumGoroutine()))
	r.HeapAllocBytes.Set(float64(ms.HeapAlloc))
	r.RuntimeSysBytes.Set(float64(ms.Sys))
	r.GCCycles.Set(float64(ms.NumGC))
}

package metrics

import "time"

// Outcome label values
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// RecordAreaQuery records a finished area query
func (r *Registry) RecordAreaQuery(executor, outcome string, duration time.Duration, matches int) {
	r.AreaQueriesTotal.WithLabelValues(executor, outcome).Inc()
	r.AreaQueryDuration.WithLabelValues(executor).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		r.AreaQueryMatches.Observe(float64(matches))
	}
}

// RecordQueryState counts a transition into state
func (r *Registry) RecordQueryState(state string) {
	r.AreaQueryState.WithLabelValues(state).Inc()
}

// RecordEncoded records the envelope size handed to an executor
func (r *Registry) RecordEncoded(bytes int) {
	r.EncodedBytes.Observe(float64(bytes))
}

// RecordOperation records a model operation and the size of its diff
func (r *Registry) RecordOperation(operation string, err error, duration time.Duration, diffAssets int) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		r.DiffAssets.WithLabelValues(operation).Observe(float64(diffAssets))
	}
}

// UpdateModelMetrics replaces the snapshot gauges
func (r *Registry) UpdateModelMetrics(assetsByType map[string]int, customerPoints int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ModelAssets.Reset()
	for typ, n := range assetsByType {
		r.ModelAssets.WithLabelValues(typ).Set(float64(n))
	}
	r.ModelCustomerPoints.Set(float64(customerPoints))
}

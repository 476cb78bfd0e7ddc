package areaquery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
)

// StateFunc observes every transition of a query. It runs on the goroutine
// that called Run.
type StateFunc func(queryID uint64, state State)

// Runner runs area queries for one caller. At most one query is in flight:
// Run cancels the previous query before starting.
type Runner struct {
	inline     Executor
	background Executor
	logger     logging.Logger
	metrics    *metrics.Registry
	onState    StateFunc

	seq      atomic.Uint64
	mu       sync.Mutex
	inflight uint64
	cancel   context.CancelFunc
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithBackground sets the executor used when Options.UseBackgroundExecutor
// is set. The runner owns it and closes it in Close.
func WithBackground(e Executor) RunnerOption {
	return func(r *Runner) { r.background = e }
}

func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

func WithMetrics(reg *metrics.Registry) RunnerOption {
	return func(r *Runner) { r.metrics = reg }
}

func WithStateFunc(fn StateFunc) RunnerOption {
	return func(r *Runner) { r.onState = fn }
}

// NewRunner creates a runner. Without a background executor every query
// runs inline.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		inline:  NewInlineExecutor(),
		logger:  logging.NewNopLogger(),
		onState: func(uint64, State) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run returns the ids of the assets inside polygon: nodes whose position is
// inside, then links with a vertex inside, each in dense index order.
//
// A cancelled query fails with ErrQueryCancelled and never returns a
// partial or stale result.
func (r *Runner) Run(ctx context.Context, m *hydraulic.HydraulicModel, polygon []geometry.Position, opts Options) ([]hydraulic.AssetID, error) {
	id := r.seq.Add(1)
	q := &query{runner: r, id: id, logger: r.logger.With(logging.QueryID(id))}
	q.set(StateIdle)

	if ctx.Err() != nil {
		return nil, q.cancelled(ctx, time.Time{})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer r.release(id, cancel)
	r.replace(id, cancel)

	exec := r.inline
	running := StateRunningInline
	if opts.UseBackgroundExecutor && r.background != nil {
		exec = r.background
		running = StateDispatched
	}
	q.executor = exec.Name()
	start := time.Now()

	q.set(StateEncoding)
	encoded, err := geoindex.Encode(m, geoindex.Options{Kind: opts.BufferKind})
	if err != nil {
		return nil, q.failed(err, start)
	}
	defer encoded.Release()
	if ctx.Err() != nil {
		return nil, q.cancelled(ctx, start)
	}

	q.set(running)
	q.logger.Debug("area query started",
		logging.Executor(exec.Name()),
		logging.Count(len(polygon)),
		logging.Bytes(encoded.Size()))
	match, err := exec.Execute(ctx, Job{Encoded: encoded, Polygon: polygon, Compress: opts.Compress})
	defer match.Release()
	if ctx.Err() != nil {
		// a result that raced the cancel is dropped
		return nil, q.cancelled(ctx, start)
	}
	if err != nil {
		return nil, q.failed(err, start)
	}

	q.set(StateDecoding)
	v, err := geoindex.Decode(encoded)
	if err != nil {
		return nil, q.failed(err, start)
	}
	ids, err := v.AssetIDs(match)
	if err != nil {
		return nil, q.failed(err, start)
	}
	if ctx.Err() != nil {
		return nil, q.cancelled(ctx, start)
	}

	q.set(StateDone)
	q.logger.Debug("area query done", logging.Count(len(ids)), logging.Latency(time.Since(start)))
	r.record(q.executor, metrics.OutcomeSuccess, start, len(ids))
	return ids, nil
}

// Cancel aborts the query in flight, if any
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Close cancels the query in flight and closes the background executor
func (r *Runner) Close() error {
	r.Cancel()
	if r.background != nil {
		return r.background.Close()
	}
	return nil
}

func (r *Runner) replace(id uint64, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.logger.Debug("area query replaced", logging.QueryID(r.inflight))
		r.cancel()
	}
	r.inflight, r.cancel = id, cancel
}

func (r *Runner) release(id uint64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight == id {
		r.cancel = nil
	}
}

func (r *Runner) record(executor, outcome string, start time.Time, matches int) {
	if r.metrics != nil {
		r.metrics.RecordAreaQuery(executor, outcome, time.Since(start), matches)
	}
}

type query struct {
	runner   *Runner
	id       uint64
	executor string
	logger   logging.Logger
}

func (q *query) set(s State) {
	if q.runner.metrics != nil {
		q.runner.metrics.RecordQueryState(string(s))
	}
	q.runner.onState(q.id, s)
}

// cancelled records a cancellation. A zero start means nothing ran.
func (q *query) cancelled(ctx context.Context, start time.Time) error {
	q.set(StateCancelled)
	q.logger.Info("area query cancelled", logging.Error(context.Cause(ctx)))
	if !start.IsZero() {
		q.runner.record(q.executor, metrics.OutcomeCancelled, start, 0)
	}
	return ErrQueryCancelled
}

func (q *query) failed(err error, start time.Time) error {
	q.set(StateFailed)
	q.logger.Error("area query failed", logging.Error(err))
	q.runner.record(q.executor, metrics.OutcomeError, start, 0)
	return err
}

package areaquery

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
	"github.com/dd0wney/cluso-waternet/pkg/parallel"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// PoolExecutor runs jobs on a worker pool. A job crosses to the worker as
// one envelope copy, so the worker shares no memory with the caller, and the
// match comes back as a fixed-size buffer.
type PoolExecutor struct {
	pool    *parallel.WorkerPool
	metrics *metrics.Registry
	logger  logging.Logger
}

type poolResult struct {
	match []byte
	err   error
}

// NewPoolExecutor starts workers goroutines. reg and logger may be nil.
func NewPoolExecutor(workers int, reg *metrics.Registry, logger logging.Logger) (*PoolExecutor, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	opts := []parallel.Option{parallel.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, parallel.WithActivityHook(func(delta int) {
			reg.WorkerPoolActive.Add(float64(delta))
		}))
	}
	pool, err := parallel.NewWorkerPool(workers, opts...)
	if err != nil {
		return nil, fmt.Errorf("area query pool: %w", err)
	}
	return &PoolExecutor{pool: pool, metrics: reg, logger: logger}, nil
}

func (*PoolExecutor) Name() string { return "pool" }

func (p *PoolExecutor) Execute(ctx context.Context, job Job) (geoindex.Match, error) {
	env, err := geoindex.Marshal(job.Encoded, job.Compress)
	if err != nil {
		return geoindex.Match{}, err
	}
	data := bytes.Clone(env.Bytes())
	env.Release()
	if p.metrics != nil {
		p.metrics.RecordEncoded(len(data))
	}

	polygon, err := encodePolygon(job.Polygon)
	if err != nil {
		return geoindex.Match{}, err
	}
	done := make(chan poolResult, 1)
	task := func() {
		done <- work(ctx, data, polygon)
	}
	if err := p.pool.SubmitContext(ctx, task); err != nil {
		if errors.Is(err, parallel.ErrPoolClosed) && p.metrics != nil {
			p.metrics.WorkerPoolRejected.Inc()
		}
		return geoindex.Match{}, err
	}

	select {
	case <-ctx.Done():
		// the worker notices ctx in the kernel and its result is dropped
		return geoindex.Match{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return geoindex.Match{}, res.err
		}
		return geoindex.DecodeMatch(res.match)
	}
}

// work is the worker side of a transferred job: envelope and polygon in,
// encoded match out.
func work(ctx context.Context, envelope, polygonData []byte) poolResult {
	polygon, err := decodePolygon(polygonData)
	if err != nil {
		return poolResult{err: err}
	}
	e, err := geoindex.Unmarshal(envelope)
	if err != nil {
		return poolResult{err: err}
	}
	m, err := run(ctx, e, polygon)
	if err != nil {
		return poolResult{err: err}
	}
	defer m.Release()
	out, err := geoindex.EncodeMatch(m, pools.Fixed)
	return poolResult{match: out, err: err}
}

// Close waits for running jobs and stops the workers
func (p *PoolExecutor) Close() error {
	p.pool.Close()
	return nil
}

// Package areaquery selects the assets inside a polygon. A query encodes the
// model into geo index buffers, runs the containment kernel inline or on a
// background executor, and decodes the matched dense indices back to asset
// ids.
//
// Queries are cancelled through their context. A Runner also cancels its
// previous query when a new one starts, so a superseded result is never
// returned.
package areaquery

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// State is a step of the query state machine
type State string

const (
	StateIdle          State = "idle"
	StateEncoding      State = "encoding"
	StateDispatched    State = "dispatched"
	StateRunningInline State = "running-inline"
	StateDecoding      State = "decoding"
	StateDone          State = "done"
	StateCancelled     State = "cancelled"
	StateFailed        State = "failed"
)

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// ErrQueryCancelled is returned by a query whose context ended or that was
// replaced. It wraps context.Canceled.
var ErrQueryCancelled = fmt.Errorf("area query cancelled: %w", context.Canceled)

// IsCancelled distinguishes a cancelled or timed out query from a fault
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Options are per-query parameters
type Options struct {
	// BufferKind selects the carrier the model is encoded on
	BufferKind pools.CarrierKind
	// UseBackgroundExecutor runs the kernel on the runner's background
	// executor instead of the calling goroutine
	UseBackgroundExecutor bool
	// Compress snappy-encodes the envelope sent to a background executor
	Compress bool
}

// Job is one containment request handed to an executor. The executor must
// not retain Encoded after Execute returns.
type Job struct {
	Encoded  *geoindex.Encoded
	Polygon  []geometry.Position
	Compress bool
}

// Executor runs the containment kernel for a job
type Executor interface {
	Name() string
	Execute(ctx context.Context, job Job) (geoindex.Match, error)
	Close() error
}

// run is the kernel every executor ends in
func run(ctx context.Context, e *geoindex.Encoded, polygon []geometry.Position) (geoindex.Match, error) {
	v, err := geoindex.Decode(e)
	if err != nil {
		return geoindex.Match{}, err
	}
	return geoindex.Contains(ctx, v, polygon)
}

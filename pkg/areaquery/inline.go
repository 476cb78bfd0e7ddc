package areaquery

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
)

// InlineExecutor runs the kernel on the calling goroutine
type InlineExecutor struct{}

func NewInlineExecutor() *InlineExecutor { return &InlineExecutor{} }

func (*InlineExecutor) Name() string { return "inline" }

func (*InlineExecutor) Execute(ctx context.Context, job Job) (geoindex.Match, error) {
	return run(ctx, job.Encoded, job.Polygon)
}

func (*InlineExecutor) Close() error { return nil }

// NewExecutor builds an executor by its configuration name
func NewExecutor(name string, workers int, reg *metrics.Registry, logger logging.Logger) (Executor, error) {
	switch name {
	case "inline", "":
		return NewInlineExecutor(), nil
	case "pool":
		return NewPoolExecutor(workers, reg, logger)
	case "socket":
		return NewSocketExecutor(workers, reg, logger)
	default:
		return nil, fmt.Errorf("unknown area query executor %q", name)
	}
}

package areaquery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// in-process transport only
	_ "go.nanomsg.org/mangos/v3/transport/inproc"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
)

// SocketExecutor answers jobs from REP workers on an inproc address. Every
// Execute dials its own REQ socket and closes it when the query is
// cancelled, so the worker's reply for a cancelled query has nowhere to go.
//
// The caller's deadline travels in the request and bounds the worker's
// kernel. A cancel without a deadline cannot reach the worker: it finishes
// the scan and its reply is dropped.
type SocketExecutor struct {
	addr    string
	sock    mangos.Socket
	metrics *metrics.Registry
	logger  logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSocketExecutor listens on a fresh inproc address with workers reply
// loops. reg and logger may be nil.
func NewSocketExecutor(workers int, reg *metrics.Registry, logger logging.Logger) (*SocketExecutor, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if workers <= 0 {
		workers = 1
	}
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("area query socket: %w", err)
	}
	addr := "inproc://waternet-areaquery-" + uuid.NewString()
	if err := sock.Listen(addr); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("area query listen %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &SocketExecutor{
		addr:    addr,
		sock:    sock,
		metrics: reg,
		logger:  logger.With(logging.String("addr", addr)),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		wctx, err := sock.OpenContext()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("area query socket context: %w", err)
		}
		s.wg.Add(1)
		go s.serve(wctx)
	}
	return s, nil
}

func (*SocketExecutor) Name() string { return "socket" }

// Addr is the inproc address the workers listen on
func (s *SocketExecutor) Addr() string { return s.addr }

func (s *SocketExecutor) serve(c mangos.Context) {
	defer s.wg.Done()
	defer c.Close()
	for {
		msg, err := c.Recv()
		if err != nil {
			if !errors.Is(err, mangos.ErrClosed) {
				s.logger.Warn("area query worker receive failed", logging.Error(err))
			}
			return
		}
		if err := c.Send(encodeReply(s.handle(msg))); err != nil {
			// the requester is gone: the query was cancelled
			s.logger.Debug("area query reply dropped", logging.Error(err))
		}
	}
}

// handle runs one request under the executor context, narrowed to the
// request deadline when it carries one.
func (s *SocketExecutor) handle(msg []byte) poolResult {
	r, err := decodeRequest(msg)
	if err != nil {
		return poolResult{err: err}
	}
	ctx := s.ctx
	if !r.deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, r.deadline)
		defer cancel()
	}
	return work(ctx, r.envelope, r.polygon)
}

func (s *SocketExecutor) Execute(ctx context.Context, job Job) (geoindex.Match, error) {
	env, err := geoindex.Marshal(job.Encoded, job.Compress)
	if err != nil {
		return geoindex.Match{}, err
	}
	deadline, _ := ctx.Deadline()
	msg, err := encodeRequest(job.Polygon, env.Bytes(), deadline)
	env.Release()
	if err != nil {
		return geoindex.Match{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordEncoded(len(msg))
	}

	sock, err := req.NewSocket()
	if err != nil {
		return geoindex.Match{}, fmt.Errorf("area query requester: %w", err)
	}
	if err := sock.Dial(s.addr); err != nil {
		_ = sock.Close()
		return geoindex.Match{}, fmt.Errorf("area query dial %s: %w", s.addr, err)
	}

	done := make(chan poolResult, 1)
	go func() {
		if err := sock.Send(msg); err != nil {
			done <- poolResult{err: err}
			return
		}
		reply, err := sock.Recv()
		if err != nil {
			done <- poolResult{err: err}
			return
		}
		match, err := decodeReply(reply)
		done <- poolResult{match: match, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = sock.Close()
		return geoindex.Match{}, ctx.Err()
	case res := <-done:
		_ = sock.Close()
		if res.err != nil {
			return geoindex.Match{}, res.err
		}
		return geoindex.DecodeMatch(res.match)
	}
}

// Close stops the workers. Kernels in progress see a cancelled context.
func (s *SocketExecutor) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.sock.Close()
		s.wg.Wait()
	})
	return err
}

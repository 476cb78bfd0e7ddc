package areaquery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geoindex"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// J1(0,0) -P3- J2(20,20)
func network(t *testing.T) *hydraulic.HydraulicModel {
	t.Helper()
	m, err := hydraulic.NewNetworkBuilder(quantity.Metric()).
		AddJunction(hydraulic.JunctionOptions{ID: 1, Coordinates: geometry.Position{0, 0}}).
		AddJunction(hydraulic.JunctionOptions{ID: 2, Coordinates: geometry.Position{20, 20}}).
		AddPipe(hydraulic.PipeOptions{ID: 3, Connections: [2]hydraulic.AssetID{1, 2}}).
		Build()
	require.NoError(t, err)
	return m
}

var square = []geometry.Position{{-1, -1}, {11, -1}, {11, 11}, {-1, 11}, {-1, -1}}

func executors(t *testing.T, reg *metrics.Registry) map[string]Executor {
	t.Helper()
	pool, err := NewPoolExecutor(2, reg, nil)
	require.NoError(t, err)
	sock, err := NewSocketExecutor(2, reg, nil)
	require.NoError(t, err)
	return map[string]Executor{"inline": NewInlineExecutor(), "pool": pool, "socket": sock}
}

func TestRunSelectsContainedAssets(t *testing.T) {
	m := network(t)
	for name, exec := range executors(t, nil) {
		for _, kind := range []pools.CarrierKind{pools.Growable, pools.Fixed} {
			for _, compress := range []bool{false, true} {
				r := NewRunner(WithBackground(exec))
				ids, err := r.Run(context.Background(), m, square, Options{
					BufferKind:            kind,
					UseBackgroundExecutor: true,
					Compress:              compress,
				})
				require.NoError(t, err, "%s kind=%s compress=%v", name, kind, compress)
				// J2 is outside; P3 has its start vertex inside
				assert.Equal(t, []hydraulic.AssetID{1, 3}, ids, "%s kind=%s compress=%v", name, kind, compress)
			}
		}
		require.NoError(t, exec.Close())
	}
}

func TestRunEmptySelection(t *testing.T) {
	r := NewRunner()
	ids, err := r.Run(context.Background(), network(t), []geometry.Position{{100, 100}, {101, 100}, {101, 101}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

type transitions struct {
	mu     sync.Mutex
	states map[uint64][]State
}

func (tr *transitions) record(id uint64, s State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.states == nil {
		tr.states = map[uint64][]State{}
	}
	tr.states[id] = append(tr.states[id], s)
}

func (tr *transitions) of(id uint64) []State {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]State(nil), tr.states[id]...)
}

func TestRunStateMachine(t *testing.T) {
	var tr transitions
	pool, err := NewPoolExecutor(1, nil, nil)
	require.NoError(t, err)
	r := NewRunner(WithBackground(pool), WithStateFunc(tr.record))
	defer r.Close()
	m := network(t)

	_, err = r.Run(context.Background(), m, square, Options{})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), m, square, Options{UseBackgroundExecutor: true, BufferKind: pools.Fixed})
	require.NoError(t, err)

	assert.Equal(t, []State{StateIdle, StateEncoding, StateRunningInline, StateDecoding, StateDone}, tr.of(1))
	assert.Equal(t, []State{StateIdle, StateEncoding, StateDispatched, StateDecoding, StateDone}, tr.of(2))
}

func TestRunAlreadyCancelled(t *testing.T) {
	var tr transitions
	r := NewRunner(WithStateFunc(tr.record))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids, err := r.Run(ctx, network(t), square, Options{})
	assert.Nil(t, ids)
	assert.ErrorIs(t, err, ErrQueryCancelled)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, []State{StateIdle, StateCancelled}, tr.of(1), "no work before the cancel")
}

func TestRunDeadline(t *testing.T) {
	r := NewRunner(WithBackground(&gateExecutor{entered: make(chan struct{}, 1), gate: make(chan struct{})}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, network(t), square, Options{UseBackgroundExecutor: true})
	assert.True(t, IsCancelled(err))
}

// gateExecutor holds its job until gate closes. After a cancel it still
// delivers a result, late.
type gateExecutor struct {
	entered chan struct{}
	gate    chan struct{}
}

func (*gateExecutor) Name() string { return "gate" }

func (g *gateExecutor) Execute(ctx context.Context, job Job) (geoindex.Match, error) {
	g.entered <- struct{}{}
	select {
	case <-g.gate:
	case <-ctx.Done():
		// hold on a little to deliver late
		<-time.After(5 * time.Millisecond)
	}
	return run(context.Background(), job.Encoded, job.Polygon)
}

func (*gateExecutor) Close() error { return nil }

func TestRunReplacesPreviousQuery(t *testing.T) {
	gate := &gateExecutor{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	reg := metrics.NewRegistry()
	r := NewRunner(WithBackground(gate), WithMetrics(reg))
	m := network(t)

	type outcome struct {
		ids []hydraulic.AssetID
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		ids, err := r.Run(context.Background(), m, square, Options{UseBackgroundExecutor: true})
		first <- outcome{ids, err}
	}()
	<-gate.entered

	ids, err := r.Run(context.Background(), m, []geometry.Position{{19, 19}, {21, 19}, {21, 21}, {19, 21}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []hydraulic.AssetID{2, 3}, ids)

	close(gate.gate)
	a := <-first
	assert.Nil(t, a.ids, "a replaced query surfaces nothing")
	assert.ErrorIs(t, a.err, ErrQueryCancelled)

	for labels, want := range map[[2]string]float64{
		{"gate", metrics.OutcomeCancelled}: 1,
		{"inline", metrics.OutcomeSuccess}: 1,
	} {
		c, err := reg.AreaQueriesTotal.GetMetricWithLabelValues(labels[0], labels[1])
		require.NoError(t, err)
		var metric dto.Metric
		require.NoError(t, c.Write(&metric))
		assert.Equal(t, want, metric.Counter.GetValue(), "%v", labels)
	}
}

func TestRunnerCancel(t *testing.T) {
	gate := &gateExecutor{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	r := NewRunner(WithBackground(gate))

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), network(t), square, Options{UseBackgroundExecutor: true})
		done <- err
	}()
	<-gate.entered
	r.Cancel()
	assert.ErrorIs(t, <-done, ErrQueryCancelled)
}

type failingExecutor struct{}

func (failingExecutor) Name() string { return "failing" }
func (failingExecutor) Execute(context.Context, Job) (geoindex.Match, error) {
	return geoindex.Match{}, errors.New("worker crashed")
}
func (failingExecutor) Close() error { return nil }

func TestRunFaultIsNotCancellation(t *testing.T) {
	var tr transitions
	r := NewRunner(WithBackground(failingExecutor{}), WithStateFunc(tr.record))

	_, err := r.Run(context.Background(), network(t), square, Options{UseBackgroundExecutor: true})
	require.Error(t, err)
	assert.False(t, IsCancelled(err))
	assert.Equal(t, StateFailed, tr.of(1)[len(tr.of(1))-1])
}

func TestStateTerminal(t *testing.T) {
	for s, want := range map[State]bool{
		StateIdle: false, StateEncoding: false, StateDispatched: false, StateDecoding: false,
		StateDone: true, StateCancelled: true, StateFailed: true,
	} {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	if _, err := decodePolygon([]byte{1, 0, 0, 0, 9}); !errors.Is(err, ErrBadMessage) {
		t.Errorf("decodePolygon() error = %v, want ErrBadMessage", err)
	}
	if _, err := decodeRequest([]byte{200, 0, 0, 0}); !errors.Is(err, ErrBadMessage) {
		t.Errorf("decodeRequest() error = %v, want ErrBadMessage", err)
	}
	if _, err := decodeRequest([]byte{0, 0, 0, 0, 0, 0, 0, 0, 200, 0, 0, 0}); !errors.Is(err, ErrBadMessage) {
		t.Errorf("decodeRequest() error = %v, want ErrBadMessage", err)
	}
	if _, err := decodeReply([]byte{7}); !errors.Is(err, ErrBadMessage) {
		t.Errorf("decodeReply() error = %v, want ErrBadMessage", err)
	}
	if _, err := decodeReply(encodeReply(poolResult{err: errors.New("boom")})); err == nil || err.Error() != "area query worker: boom" {
		t.Errorf("decodeReply() error = %v", err)
	}

	polygon := []geometry.Position{{1.5, -2}, {3, 4}}
	data, err := encodePolygon(polygon)
	require.NoError(t, err)
	got, err := decodePolygon(data)
	require.NoError(t, err)
	assert.Equal(t, polygon, got)
}

func TestRequestCarriesDeadline(t *testing.T) {
	polygon := []geometry.Position{{1.5, -2}, {3, 4}}
	deadline := time.Unix(1_700_000_000, 250_000_000)

	msg, err := encodeRequest(polygon, []byte("env"), deadline)
	require.NoError(t, err)
	r, err := decodeRequest(msg)
	require.NoError(t, err)
	assert.WithinDuration(t, deadline, r.deadline, time.Microsecond)
	assert.Equal(t, []byte("env"), r.envelope)
	got, err := decodePolygon(r.polygon)
	require.NoError(t, err)
	assert.Equal(t, polygon, got)

	msg, err = encodeRequest(polygon, nil, time.Time{})
	require.NoError(t, err)
	r, err = decodeRequest(msg)
	require.NoError(t, err)
	assert.True(t, r.deadline.IsZero())
	assert.Empty(t, r.envelope)
}

func TestSocketWorkerHonoursDeadline(t *testing.T) {
	sock, err := NewSocketExecutor(1, nil, nil)
	require.NoError(t, err)
	defer sock.Close()

	encoded, err := geoindex.Encode(network(t), geoindex.Options{})
	require.NoError(t, err)
	defer encoded.Release()
	env, err := geoindex.Marshal(encoded, false)
	require.NoError(t, err)
	defer env.Release()

	expired, err := encodeRequest(square, env.Bytes(), time.Now().Add(-time.Second))
	require.NoError(t, err)
	res := sock.handle(expired)
	assert.ErrorIs(t, res.err, context.DeadlineExceeded)

	open, err := encodeRequest(square, env.Bytes(), time.Time{})
	require.NoError(t, err)
	res = sock.handle(open)
	require.NoError(t, res.err)
	m, err := geoindex.DecodeMatch(res.match)
	require.NoError(t, err)
	defer m.Release()
	assert.Equal(t, []uint32{0}, m.Nodes)
}

func TestNewExecutor(t *testing.T) {
	for _, name := range []string{"inline", "pool", "socket"} {
		exec, err := NewExecutor(name, 1, nil, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, exec.Name())
		assert.NoError(t, exec.Close())
	}
	_, err := NewExecutor("thread", 1, nil, nil)
	assert.Error(t, err)
}

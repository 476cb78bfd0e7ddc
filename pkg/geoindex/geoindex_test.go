package geoindex

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// J1(0,0)  T3(5,5)  J2(20,20)  R4(30,0)
// P10 J1->J2, P11 J2->R4, PU12 T3->J1
func fixture(t *testing.T) *hydraulic.HydraulicModel {
	t.Helper()
	m, err := hydraulic.NewNetworkBuilder(quantity.Metric()).
		AddJunction(hydraulic.JunctionOptions{ID: 1, Coordinates: geometry.Position{0, 0}}).
		AddJunction(hydraulic.JunctionOptions{ID: 2, Coordinates: geometry.Position{20, 20}}).
		AddTank(hydraulic.TankOptions{ID: 3, Coordinates: geometry.Position{5, 5}}).
		AddReservoir(hydraulic.ReservoirOptions{ID: 4, Coordinates: geometry.Position{30, 0}}).
		AddPipe(hydraulic.PipeOptions{ID: 10, Connections: [2]hydraulic.AssetID{1, 2}}).
		AddPipe(hydraulic.PipeOptions{ID: 11, Connections: [2]hydraulic.AssetID{2, 4}}).
		AddPump(hydraulic.PumpOptions{ID: 12, Connections: [2]hydraulic.AssetID{3, 1}}).
		Build()
	require.NoError(t, err)
	return m
}

func decoded(t *testing.T, m *hydraulic.HydraulicModel, kind pools.CarrierKind) *View {
	t.Helper()
	enc, err := Encode(m, Options{Kind: kind})
	require.NoError(t, err)
	t.Cleanup(enc.Release)
	v, err := Decode(enc)
	require.NoError(t, err)
	return v
}

var rectangle = []geometry.Position{{-1, -1}, {11, -1}, {11, 11}, {-1, 11}, {-1, -1}}

func TestEncodeAssignsDenseIndices(t *testing.T) {
	for _, kind := range []pools.CarrierKind{pools.Growable, pools.Fixed} {
		t.Run(string(kind), func(t *testing.T) {
			v := decoded(t, fixture(t), kind)

			assert.Equal(t, 4, v.NodeCount())
			assert.Equal(t, 3, v.LinkCount())

			for dense, want := range []hydraulic.AssetID{1, 2, 3, 4} {
				id, err := v.NodeID(dense)
				require.NoError(t, err)
				assert.Equal(t, want, id)
			}
			typ, err := v.NodeType(2)
			require.NoError(t, err)
			assert.Equal(t, hydraulic.TypeTank, typ)

			typ, err = v.LinkType(2)
			require.NoError(t, err)
			assert.Equal(t, hydraulic.TypePump, typ)

			conn, err := v.LinkConnections(2)
			require.NoError(t, err)
			assert.Equal(t, [2]uint32{2, 0}, conn, "pump runs from dense node 2 to dense node 0")

			links, err := v.NodeLinks(0)
			require.NoError(t, err)
			assert.ElementsMatch(t, []uint32{0, 2}, links)

			line, err := v.LinkVertices(1)
			require.NoError(t, err)
			assert.Equal(t, []geometry.Position{{20, 20}, {30, 0}}, line)

			b := v.Bounds()
			assert.Equal(t, 0.0, b.Min.X)
			assert.Equal(t, 30.0, b.Max.X)
			assert.Equal(t, 20.0, b.Max.Y)
		})
	}
}

func TestAssetIndexLookup(t *testing.T) {
	v := decoded(t, fixture(t), pools.Growable)

	tests := []struct {
		id    hydraulic.AssetID
		kind  Kind
		dense int
		ok    bool
	}{
		{1, KindNode, 0, true},
		{4, KindNode, 3, true},
		{10, KindLink, 0, true},
		{12, KindLink, 2, true},
		{7, 0, 0, false},
		{999, 0, 0, false},
	}
	for _, tt := range tests {
		kind, dense, ok := v.Lookup(tt.id)
		if kind != tt.kind || dense != tt.dense || ok != tt.ok {
			t.Errorf("Lookup(%d) = %v, %d, %v, want %v, %d, %v", tt.id, kind, dense, ok, tt.kind, tt.dense, tt.ok)
		}
	}
}

func TestPackEntry(t *testing.T) {
	for _, dense := range []int{0, 1, 1000, denseMask - 1} {
		for _, kind := range []Kind{KindLink, KindNode} {
			k, d, ok := unpackEntry(packEntry(kind, dense))
			if !ok || k != kind || d != dense {
				t.Errorf("unpackEntry(packEntry(%v, %d)) = %v, %d, %v", kind, dense, k, d, ok)
			}
		}
	}
	if _, _, ok := unpackEntry(0); ok {
		t.Error("entry 0 must read as absent")
	}
}

func TestContainsRectangle(t *testing.T) {
	m := fixture(t)
	v := decoded(t, m, pools.Fixed)

	match, err := Contains(context.Background(), v, rectangle)
	require.NoError(t, err)
	ids, err := v.AssetIDs(match)
	require.NoError(t, err)

	// nodes first, then links; P10 has its start vertex inside
	assert.Equal(t, []hydraulic.AssetID{1, 3, 10, 12}, ids)
}

func TestContainsPolygon(t *testing.T) {
	v := decoded(t, fixture(t), pools.Growable)

	tests := []struct {
		name    string
		polygon []geometry.Position
		want    []hydraulic.AssetID
	}{
		{"triangle around the tank", []geometry.Position{{3, 3}, {8, 3}, {5, 8}}, []hydraulic.AssetID{3, 12}},
		{"crossing without vertices", []geometry.Position{{9, 9}, {11, 9}, {11, 11}, {9, 11}}, []hydraulic.AssetID{}},
		{"outside the network", []geometry.Position{{100, 100}, {101, 100}, {101, 101}}, []hydraulic.AssetID{}},
		{"degenerate", []geometry.Position{{0, 0}, {1, 1}}, []hydraulic.AssetID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := Contains(context.Background(), v, tt.polygon)
			require.NoError(t, err)
			ids, err := v.AssetIDs(match)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestContainsHonoursContext(t *testing.T) {
	v := decoded(t, fixture(t), pools.Growable)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Contains(ctx, v, rectangle)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Contains() error = %v, want context.Canceled", err)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	m := fixture(t)
	for _, compress := range []bool{false, true} {
		for _, kind := range []pools.CarrierKind{pools.Growable, pools.Fixed} {
			enc, err := Encode(m, Options{Kind: kind})
			require.NoError(t, err)

			env, err := Marshal(enc, compress)
			require.NoError(t, err)
			if !compress {
				assert.Equal(t, headerSize+enc.Size(), env.Len())
			}

			back, err := Unmarshal(env.Bytes())
			require.NoError(t, err)
			assert.Equal(t, kind, back.Kind)

			v, err := Decode(back)
			require.NoError(t, err)
			match, err := Contains(context.Background(), v, rectangle)
			require.NoError(t, err)
			ids, _ := v.AssetIDs(match)
			assert.Equal(t, []hydraulic.AssetID{1, 3, 10, 12}, ids, "kind=%s compress=%v", kind, compress)

			env.Release()
			enc.Release()
		}
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"bad magic": make([]byte, headerSize),
	}
	for name, data := range tests {
		if _, err := Unmarshal(data); !errors.Is(err, ErrBadEnvelope) {
			t.Errorf("%s: Unmarshal() error = %v, want ErrBadEnvelope", name, err)
		}
	}

	enc, err := Encode(fixture(t), Options{})
	require.NoError(t, err)
	defer enc.Release()
	env, err := Marshal(enc, false)
	require.NoError(t, err)
	defer env.Release()
	truncated := env.Bytes()[:env.Len()-1]
	if _, err := Unmarshal(truncated); !errors.Is(err, ErrBadEnvelope) {
		t.Errorf("truncated payload error = %v, want ErrBadEnvelope", err)
	}
}

func TestMatchRoundTrip(t *testing.T) {
	m := Match{Nodes: []uint32{0, 4}, Links: []uint32{2}}
	data, err := EncodeMatch(m, pools.Fixed)
	require.NoError(t, err)
	got, err := DecodeMatch(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	empty, err := EncodeMatch(Match{}, pools.Growable)
	require.NoError(t, err)
	got, err = DecodeMatch(empty)
	require.NoError(t, err)
	assert.Zero(t, got.Len())

	if _, err := DecodeMatch([]byte{1}); !errors.Is(err, buffers.ErrShortBuffer) {
		t.Errorf("DecodeMatch(short) error = %v, want ErrShortBuffer", err)
	}
}

func TestNearestNode(t *testing.T) {
	v := decoded(t, fixture(t), pools.Growable)
	loc, err := NewNodeLocator(v)
	require.NoError(t, err)

	dense, dist, ok := loc.NearestNode(geometry.Position{6, 4}, 0)
	require.True(t, ok)
	assert.Equal(t, 2, dense, "tank at (5,5) is nearest")
	assert.InDelta(t, 1.41421356, dist, 1e-6)

	_, _, ok = loc.NearestNode(geometry.Position{100, 100}, 5)
	assert.False(t, ok, "nothing within 5 units")

	within := loc.NodesWithin(geometry.Position{0, 0}, 8)
	assert.Equal(t, []int{0, 2}, within)

	empty, err := NewNodeLocator(decoded(t, hydraulic.ForPreset(quantity.Metric()), pools.Growable))
	require.NoError(t, err)
	_, _, ok = empty.NearestNode(geometry.Position{0, 0}, 0)
	assert.False(t, ok)
}

// Every node the kernel selects is inside the polygon, and every node it
// skips is outside, for random rectangles over a random cloud of junctions.
func TestContainsMatchesBruteForce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-50, 50)

	properties.Property("nodes selected iff inside", prop.ForAll(
		func(xs, ys []float64, x0, y0, x1, y1 float64) bool {
			b := hydraulic.NewNetworkBuilder(quantity.Metric())
			n := min(len(xs), len(ys))
			for i := 0; i < n; i++ {
				b.AddJunction(hydraulic.JunctionOptions{ID: hydraulic.AssetID(i + 1), Coordinates: geometry.Position{xs[i], ys[i]}})
			}
			m, err := b.Build()
			if err != nil {
				return false
			}
			enc, err := Encode(m, Options{Kind: pools.Fixed})
			if err != nil {
				return false
			}
			defer enc.Release()
			v, err := Decode(enc)
			if err != nil {
				return false
			}

			poly := []geometry.Position{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
			match, err := Contains(context.Background(), v, poly)
			if err != nil {
				return false
			}
			var want []uint32
			for i := 0; i < n; i++ {
				if geometry.PointInPolygon(geometry.Position{xs[i], ys[i]}, poly) || geometry.BoxContains(geometry.BoundsOf(poly), geometry.Position{xs[i], ys[i]}) && isRect(poly) {
					want = append(want, uint32(i))
				}
			}
			return slices.Equal(match.Nodes, want)
		},
		gen.SliceOfN(30, coord), gen.SliceOfN(30, coord), coord, coord, coord, coord,
	))
	properties.TestingRun(t)
}

func isRect(poly []geometry.Position) bool {
	_, ok := geometry.AxisAlignedRectangle(poly)
	return ok
}

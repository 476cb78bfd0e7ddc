package hydraulic

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// Two junctions and a reservoir joined by two pipes:
// R1(0,0) -P10- J2(10,0) -P11- J3(20,0)
func smallNetwork(t *testing.T) *HydraulicModel {
	t.Helper()
	m, err := NewNetworkBuilder(quantity.Metric()).
		AddReservoir(ReservoirOptions{ID: 1, Coordinates: geometry.Position{0, 0}}).
		AddJunction(JunctionOptions{ID: 2, Coordinates: geometry.Position{10, 0}, BaseDemand: 1}).
		AddJunction(JunctionOptions{ID: 3, Coordinates: geometry.Position{20, 0}, BaseDemand: 2}).
		AddPipe(PipeOptions{ID: 10, Connections: [2]AssetID{1, 2}}).
		AddPipe(PipeOptions{ID: 11, Connections: [2]AssetID{2, 3}}).
		AddCustomerPoint(1, geometry.Position{15, 1}, 0.5, &Connection{PipeID: 11, SnapPoint: geometry.Position{15, 0}, JunctionID: 3}).
		Build()
	require.NoError(t, err)
	return m
}

func TestNetworkBuilderWiresTopology(t *testing.T) {
	m := smallNetwork(t)

	assert.Equal(t, 5, m.Assets.Len())
	assert.Equal(t, []uint32{10, 11}, m.Topology.GetLinks(2))
	assert.True(t, m.Topology.NodesShareLink(1, 2))
	assert.False(t, m.Topology.NodesShareLink(1, 3))
	assert.Equal(t, 1, m.LabelManager.Count("J2"))

	pipe := m.Assets.GetPipe(11)
	require.NotNil(t, pipe)
	assert.Equal(t, []geometry.Position{{10, 0}, {20, 0}}, pipe.Coordinates())

	next := m.Builder.BuildJunction(JunctionOptions{})
	assert.Equal(t, AssetID(12), next.ID(), "ids continue after the imported maximum")
}

func TestNetworkBuilderUnknownNode(t *testing.T) {
	_, err := NewNetworkBuilder(quantity.Metric()).
		AddJunction(JunctionOptions{ID: 1}).
		AddPipe(PipeOptions{ID: 5, Connections: [2]AssetID{1, 9}}).
		Build()
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Build() error = %v, want ErrAssetNotFound", err)
	}
}

func TestCustomerPointsLookup(t *testing.T) {
	m := smallNetwork(t)

	onPipe := m.CustomerPointsLookup.GetCustomerPoints(11)
	onJunction := m.CustomerPointsLookup.GetCustomerPoints(3)
	require.Len(t, onPipe, 1)
	require.Len(t, onJunction, 1)
	assert.False(t, m.CustomerPointsLookup.HasConnections(2))

	j3 := m.Assets.GetJunction(3)
	assert.Equal(t, 0.5, j3.TotalCustomerDemand(m.CustomerPointsLookup))
	assert.InDelta(t, 3.5, m.TotalDemand(), 1e-9)

	lookup := m.CustomerPointsLookup.Copy()
	lookup.RemoveConnection(onPipe[0])
	assert.False(t, lookup.HasConnections(11))
	assert.True(t, m.CustomerPointsLookup.HasConnections(11), "Copy() must not share entries")
}

func TestActiveCustomerPointsSkipsInactivePipes(t *testing.T) {
	m := smallNetwork(t)
	pipe := m.Assets.GetPipe(11).Copy()
	pipe.SetActive(false)
	m = ApplyDiff(m, Diff{PutAssets: []Asset{pipe}})

	assert.Empty(t, ActiveCustomerPoints(m.CustomerPointsLookup, m.Assets, 3))
	assert.InDelta(t, 3.0, m.TotalDemand(), 1e-9)
}

func TestBuildCustomerPointRoundsCoordinates(t *testing.T) {
	cp := BuildCustomerPoint(1, "c", geometry.Position{1.123456789, -0.0000004}, 2)
	if cp.Coordinates != (geometry.Position{1.123457, 0}) {
		t.Errorf("Coordinates = %v, want [1.123457 0]", cp.Coordinates)
	}
	cp.Connect(Connection{PipeID: 4, JunctionID: 5})
	disconnected := cp.CopyDisconnected()
	if disconnected.IsConnected() || !cp.IsConnected() {
		t.Error("CopyDisconnected() must leave the original connected")
	}
}

func TestApplyDiff(t *testing.T) {
	m := smallNetwork(t)

	moved := m.Assets.GetNode(3).Copy().(Node)
	moved.SetCoordinates(geometry.Position{30, 0})
	relabelled := m.Assets.GetPipe(10).Copy()
	relabelled.SetLabel("MAIN")

	next := ApplyDiff(m, Diff{
		Note:         "edit",
		PutAssets:    []Asset{moved, relabelled},
		DeleteAssets: []AssetID{11},
	})

	assert.NotEqual(t, m.Version, next.Version)
	assert.True(t, m.Assets.Has(11), "ApplyDiff must not touch the source snapshot")
	assert.False(t, next.Assets.Has(11))
	assert.Equal(t, []uint32{10}, next.Topology.GetLinks(2))
	assert.Equal(t, []uint32{10, 11}, m.Topology.GetLinks(2))

	got := next.Assets.GetNode(3).Coordinates()
	assert.Equal(t, geometry.Position{30, 0}, got)

	assert.Equal(t, 1, next.LabelManager.Count("MAIN"))
	assert.Equal(t, 0, next.LabelManager.Count("P10"))
	assert.Equal(t, 0, next.LabelManager.Count("P11"))

	// insertion order is kept for replaced assets
	ids := make([]AssetID, 0)
	for id := range next.Assets.All() {
		ids = append(ids, id)
	}
	assert.Equal(t, []AssetID{1, 2, 3, 10}, ids)
}

func TestApplyDiffSkipsMissingEndpoints(t *testing.T) {
	m := smallNetwork(t)
	dangling := m.Assets.GetPipe(11).Copy().(*Pipe)
	dangling.SetConnections(3, 42)

	next := ApplyDiff(m, Diff{PutAssets: []Asset{dangling}})

	assert.False(t, next.Topology.HasNode(42))
	assert.Equal(t, []uint32{11}, next.Topology.GetLinks(3))
	rebuilt := BuildTopology(next.Assets)
	for _, id := range []uint32{1, 2, 3, 42} {
		assert.Equal(t, rebuilt.GetLinks(id), next.Topology.GetLinks(id), "node %d", id)
	}
}

func TestApplyDiffCustomerPointsAndCurves(t *testing.T) {
	m := smallNetwork(t)
	cp, _ := m.CustomerPoints.Get(1)
	moved := cp.CopyDisconnected()
	moved.Connect(Connection{PipeID: 10, SnapPoint: geometry.Position{5, 0}, JunctionID: 2})

	next := ApplyDiff(m, Diff{
		PutCustomerPoints: []*CustomerPoint{moved},
		PutCurves:         []Curve{{ID: "1", Type: CurvePump, Points: []CurvePoint{{X: 1, Y: 1}}}},
	})

	assert.False(t, next.CustomerPointsLookup.HasConnections(11))
	assert.True(t, next.CustomerPointsLookup.HasConnections(10))
	assert.True(t, m.CustomerPointsLookup.HasConnections(11))
	assert.Contains(t, next.Curves, "1")
	assert.NotContains(t, m.Curves, "1")
}

func TestUpdateHydraulicModelAssetsResorts(t *testing.T) {
	m := smallNetwork(t)
	assets := NewAssetsMap()
	for _, id := range []AssetID{11, 3, 2, 10, 1} {
		a, _ := m.Assets.Get(id)
		assets.Set(a)
	}
	m = UpdateHydraulicModelAssets(m, assets)
	sorted := UpdateHydraulicModelAssets(m, nil)

	var ids []AssetID
	for _, a := range sorted.Assets.Values() {
		ids = append(ids, a.ID())
	}
	if !slices.Equal(ids, []AssetID{1, 2, 3, 10, 11}) {
		t.Errorf("ids = %v, want sorted", ids)
	}
	if sorted.Assets == m.Assets {
		t.Error("re-sorting must produce a new assets reference")
	}
}

func TestAttachSimulation(t *testing.T) {
	m := smallNetwork(t)
	results := &StaticResults{
		Pipes:     map[AssetID]*PipeSimulation{10: {Flow: 3.5, Status: PipeOpen}},
		Junctions: map[AssetID]*JunctionSimulation{2: {Pressure: 42}},
	}
	next := AttachSimulation(m, results)

	require.NotSame(t, m.Assets, next.Assets)
	flow, ok := next.Assets.GetPipe(10).Flow()
	assert.True(t, ok)
	assert.Equal(t, 3.5, flow)
	_, ok = m.Assets.GetPipe(10).Flow()
	assert.False(t, ok, "source snapshot must not gain overlays")
	_, ok = next.Assets.GetPipe(11).Flow()
	assert.False(t, ok, "no result means no overlay")

	empty := AttachSimulation(next, nil)
	assert.False(t, empty.Assets.GetPipe(10).HasSimulation())
}

func TestAddCustomerPointsClearsJunctionDemand(t *testing.T) {
	m := smallNetwork(t)
	cp := m.Builder.BuildCustomerPoint(0, "", geometry.Position{5, 1}, 4)
	assert.Equal(t, CustomerPointID(2), cp.ID)
	cp.Connect(Connection{PipeID: 10, SnapPoint: geometry.Position{5, 0}, JunctionID: 2})

	next := AddCustomerPoints(m, []*CustomerPoint{cp}, AddCustomerPointsOptions{ClearJunctionDemands: true})
	assert.Equal(t, 0.0, next.Assets.GetJunction(2).BaseDemand())
	assert.Equal(t, 1.0, m.Assets.GetJunction(2).BaseDemand())
	assert.Equal(t, 2, next.CustomerPoints.Len())

	replaced := AddCustomerPoints(m, []*CustomerPoint{cp}, AddCustomerPointsOptions{ReplaceExisting: true})
	assert.Equal(t, 1, replaced.CustomerPoints.Len())
	assert.False(t, replaced.CustomerPointsLookup.HasConnections(11))
}

func TestDefaultAllocationRules(t *testing.T) {
	metric := DefaultAllocationRules(quantity.Metric().Units)
	us := DefaultAllocationRules(quantity.USCustomary().Units)
	assert.Equal(t, []AllocationRule{{MaxDistance: 100, MaxDiameter: 300}}, metric)
	assert.Equal(t, []AllocationRule{{MaxDistance: 320, MaxDiameter: 12}}, us)
}

func TestModelErrorFormatting(t *testing.T) {
	err := InvalidPipeError("moveNode", 999)
	assert.Contains(t, err.Error(), "invalid pipe ID: 999")
	assert.True(t, errors.Is(err, ErrInvalidPipe))
	assert.True(t, IsCallerError(err))
	assert.False(t, IsNotFound(err))

	err = AssetNotFoundError("changeProperty", 7)
	assert.Equal(t, "changeProperty asset 7: asset not found", err.Error())
	assert.True(t, IsNotFound(err))
}

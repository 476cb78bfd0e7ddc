package operations

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// straightPipe is J1(0,0) -P1- J2(10,0) with an unconnected J3(0,10)
func straightPipe(t *testing.T) *hydraulic.HydraulicModel {
	t.Helper()
	m, err := hydraulic.NewNetworkBuilder(quantity.Metric()).
		AddJunction(hydraulic.JunctionOptions{ID: 1, Label: "J1", Coordinates: geometry.Position{0, 0}}).
		AddJunction(hydraulic.JunctionOptions{ID: 2, Label: "J2", Coordinates: geometry.Position{10, 0}}).
		AddJunction(hydraulic.JunctionOptions{ID: 3, Label: "J3", Coordinates: geometry.Position{0, 10}}).
		AddPipe(hydraulic.PipeOptions{ID: 4, Label: "P1", Connections: [2]hydraulic.AssetID{1, 2}, Diameter: 150, Roughness: 110}).
		Build()
	require.NoError(t, err)
	return m
}

type chainOptions struct {
	secondInactive bool
	thirdInactive  bool
}

// chain is J1(0,0) -P10- J2(10,0) -P11- J3(20,0). Customer point 1 sits on
// P10 near J1 and point 2 on P10 near J2.
func chain(t *testing.T, o chainOptions) *hydraulic.HydraulicModel {
	t.Helper()
	m, err := hydraulic.NewNetworkBuilder(quantity.Metric()).
		AddJunction(hydraulic.JunctionOptions{ID: 1, Label: "J1", Coordinates: geometry.Position{0, 0}, BaseDemand: 2}).
		AddJunction(hydraulic.JunctionOptions{ID: 2, Label: "J2", Coordinates: geometry.Position{10, 0}, BaseDemand: 3}).
		AddJunction(hydraulic.JunctionOptions{ID: 3, Label: "J3", Coordinates: geometry.Position{20, 0}, Inactive: o.thirdInactive}).
		AddPipe(hydraulic.PipeOptions{ID: 10, Label: "P10", Connections: [2]hydraulic.AssetID{1, 2}}).
		AddPipe(hydraulic.PipeOptions{ID: 11, Label: "P11", Connections: [2]hydraulic.AssetID{2, 3}, Inactive: o.secondInactive}).
		AddCustomerPoint(1, geometry.Position{2, 1}, 1, &hydraulic.Connection{PipeID: 10, SnapPoint: geometry.Position{2, 0}, JunctionID: 1}).
		AddCustomerPoint(2, geometry.Position{8, -1}, 1, &hydraulic.Connection{PipeID: 10, SnapPoint: geometry.Position{8, 0}, JunctionID: 2}).
		Build()
	require.NoError(t, err)
	return m
}

func ids(assets []hydraulic.Asset) []hydraulic.AssetID {
	out := make([]hydraulic.AssetID, len(assets))
	for i, a := range assets {
		out[i] = a.ID()
	}
	return out
}

func pointByID(t *testing.T, points []*hydraulic.CustomerPoint, id hydraulic.CustomerPointID) *hydraulic.CustomerPoint {
	t.Helper()
	for _, cp := range points {
		if cp.ID == id {
			return cp
		}
	}
	t.Fatalf("customer point %d not in diff", id)
	return nil
}

package hydraulic

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// NetworkBuilder assembles a model asset by asset. The first error sticks
// and is returned by Build.
type NetworkBuilder struct {
	model  *HydraulicModel
	assets *AssetsMap
	points []*CustomerPoint
	curves []Curve
	err    error
}

// NewNetworkBuilder starts an empty network in the given unit preset
func NewNetworkBuilder(p quantity.Preset) *NetworkBuilder {
	return NewNetworkBuilderFor(ForPreset(p))
}

// NewNetworkBuilderFor starts from an existing empty model configuration
func NewNetworkBuilderFor(m *HydraulicModel) *NetworkBuilder {
	return &NetworkBuilder{model: m, assets: NewAssetsMap()}
}

func (b *NetworkBuilder) fail(op string, id AssetID, cause error) *NetworkBuilder {
	if b.err == nil {
		b.err = NewError(op).Asset(id).Cause(cause).Err()
	}
	return b
}

func (b *NetworkBuilder) AddJunction(o JunctionOptions) *NetworkBuilder {
	b.assets.Set(b.model.Builder.BuildJunction(o))
	return b
}

func (b *NetworkBuilder) AddReservoir(o ReservoirOptions) *NetworkBuilder {
	b.assets.Set(b.model.Builder.BuildReservoir(o))
	return b
}

func (b *NetworkBuilder) AddTank(o TankOptions) *NetworkBuilder {
	b.assets.Set(b.model.Builder.BuildTank(o))
	return b
}

// linkCoordinates snaps the polyline ends to the connected nodes, or draws
// a straight line between them when no polyline is given.
func (b *NetworkBuilder) linkCoordinates(op string, id AssetID, conn [2]AssetID, coords []geometry.Position) ([]geometry.Position, bool) {
	start, end := b.assets.GetNode(conn[0]), b.assets.GetNode(conn[1])
	if start == nil || end == nil {
		missing := conn[0]
		if start != nil {
			missing = conn[1]
		}
		b.fail(op, id, fmt.Errorf("%w: node %d", ErrAssetNotFound, missing))
		return nil, false
	}
	if len(coords) < 2 {
		return []geometry.Position{start.Coordinates(), end.Coordinates()}, true
	}
	out := geometry.CopyLine(coords)
	out[0] = start.Coordinates()
	out[len(out)-1] = end.Coordinates()
	return out, true
}

func (b *NetworkBuilder) AddPipe(o PipeOptions) *NetworkBuilder {
	coords, ok := b.linkCoordinates("addPipe", o.ID, o.Connections, o.Coordinates)
	if !ok {
		return b
	}
	o.Coordinates = coords
	b.assets.Set(b.model.Builder.BuildPipe(o))
	return b
}

func (b *NetworkBuilder) AddPump(o PumpOptions) *NetworkBuilder {
	coords, ok := b.linkCoordinates("addPump", o.ID, o.Connections, o.Coordinates)
	if !ok {
		return b
	}
	o.Coordinates = coords
	b.assets.Set(b.model.Builder.BuildPump(o))
	return b
}

func (b *NetworkBuilder) AddValve(o ValveOptions) *NetworkBuilder {
	coords, ok := b.linkCoordinates("addValve", o.ID, o.Connections, o.Coordinates)
	if !ok {
		return b
	}
	o.Coordinates = coords
	b.assets.Set(b.model.Builder.BuildValve(o))
	return b
}

// AddCustomerPoint adds a point, connected when conn is non-nil. The
// connection must reference a pipe already added.
func (b *NetworkBuilder) AddCustomerPoint(id CustomerPointID, coordinates geometry.Position, baseDemand float64, conn *Connection) *NetworkBuilder {
	cp := b.model.Builder.BuildCustomerPoint(id, "", coordinates, baseDemand)
	if conn != nil {
		if b.assets.GetPipe(conn.PipeID) == nil {
			return b.fail("addCustomerPoint", conn.PipeID, ErrInvalidPipe)
		}
		cp.Connect(*conn)
	}
	b.points = append(b.points, cp)
	return b
}

func (b *NetworkBuilder) AddCurve(c Curve) *NetworkBuilder {
	b.curves = append(b.curves, c.Copy())
	return b
}

// Build returns the finished snapshot
func (b *NetworkBuilder) Build() (*HydraulicModel, error) {
	if b.err != nil {
		return nil, b.err
	}
	m := UpdateHydraulicModelAssets(b.model, b.assets)
	m = AddCustomerPoints(m, b.points, AddCustomerPointsOptions{})
	if len(b.curves) > 0 {
		m.Curves = m.Curves.Copy()
		for _, c := range b.curves {
			m.Curves[c.ID] = c
		}
	}
	return m, nil
}

// MustBuild is Build for fixtures known to be valid
func (b *NetworkBuilder) MustBuild() *HydraulicModel {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

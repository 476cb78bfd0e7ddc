package hydraulic

import (
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
)

// Node is a point asset: junction, reservoir or tank
type Node interface {
	Asset
	Coordinates() geometry.Position
	SetCoordinates(p geometry.Position)
	Elevation() float64
	SetElevation(e float64)
}

type nodeBase struct {
	assetBase
	coordinates geometry.Position
	elevation   float64
}

func (n *nodeBase) IsNode() bool                       { return true }
func (n *nodeBase) IsLink() bool                       { return false }
func (n *nodeBase) Coordinates() geometry.Position     { return n.coordinates }
func (n *nodeBase) SetCoordinates(p geometry.Position) { n.coordinates = p }
func (n *nodeBase) Elevation() float64                 { return n.elevation }
func (n *nodeBase) SetElevation(e float64)             { n.elevation = e }

// Junction is a demand node
type Junction struct {
	nodeBase
	baseDemand float64
	simulation *JunctionSimulation
}

var junctionProperties = withCommon(TypeJunction, func(j *Junction) *assetBase { return &j.assetBase },
	propertyTable[Junction]{
		"elevation":  floatProp(func(j *Junction) *float64 { return &j.elevation }),
		"baseDemand": floatProp(func(j *Junction) *float64 { return &j.baseDemand }),
	})

func (j *Junction) Type() AssetType                         { return TypeJunction }
func (j *Junction) BaseDemand() float64                     { return j.baseDemand }
func (j *Junction) SetBaseDemand(d float64)                 { j.baseDemand = d }
func (j *Junction) HasProperty(name string) bool            { return junctionProperties.has(name) }
func (j *Junction) GetProperty(name string) (any, bool)     { return junctionProperties.get(j, name) }
func (j *Junction) SetProperty(name string, value any) bool { return junctionProperties.set(j, name, value) }
func (j *Junction) ListProperties() []string                { return junctionProperties.names() }
func (j *Junction) HasSimulation() bool                     { return j.simulation != nil }
func (j *Junction) ClearSimulation()                        { j.simulation = nil }

// SetSimulation replaces the solver overlay. nil clears it.
func (j *Junction) SetSimulation(s *JunctionSimulation) { j.simulation = s }

func (j *Junction) Pressure() (float64, bool) {
	if j.simulation == nil {
		return 0, false
	}
	return j.simulation.Pressure, true
}

func (j *Junction) Head() (float64, bool) {
	if j.simulation == nil {
		return 0, false
	}
	return j.simulation.Head, true
}

// ActualDemand is the demand reported by the solver
func (j *Junction) ActualDemand() (float64, bool) {
	if j.simulation == nil {
		return 0, false
	}
	return j.simulation.Demand, true
}

// TotalCustomerDemand sums the base demand of the customer points assigned
// to this junction.
func (j *Junction) TotalCustomerDemand(lookup *CustomerPointsLookup) float64 {
	var total float64
	for _, cp := range lookup.GetCustomerPoints(j.id) {
		if cp.Connection != nil && cp.Connection.JunctionID == j.id {
			total += cp.BaseDemand
		}
	}
	return total
}

func (j *Junction) Copy() Asset {
	cp := *j
	return &cp
}

// Reservoir is a fixed-head source
type Reservoir struct {
	nodeBase
	head float64
}

var reservoirProperties = withCommon(TypeReservoir, func(r *Reservoir) *assetBase { return &r.assetBase },
	propertyTable[Reservoir]{
		"elevation": floatProp(func(r *Reservoir) *float64 { return &r.elevation }),
		"head":      floatProp(func(r *Reservoir) *float64 { return &r.head }),
	})

func (r *Reservoir) Type() AssetType                         { return TypeReservoir }
func (r *Reservoir) Head() float64                           { return r.head }
func (r *Reservoir) SetHead(h float64)                       { r.head = h }
func (r *Reservoir) HasProperty(name string) bool            { return reservoirProperties.has(name) }
func (r *Reservoir) GetProperty(name string) (any, bool)     { return reservoirProperties.get(r, name) }
func (r *Reservoir) SetProperty(name string, value any) bool { return reservoirProperties.set(r, name, value) }
func (r *Reservoir) ListProperties() []string                { return reservoirProperties.names() }

// Reservoirs carry no solver overlay
func (r *Reservoir) HasSimulation() bool { return false }
func (r *Reservoir) ClearSimulation()    {}

func (r *Reservoir) Copy() Asset {
	cp := *r
	return &cp
}

// Tank is a storage node
type Tank struct {
	nodeBase
	initialLevel float64
	minLevel     float64
	maxLevel     float64
	minVolume    float64
	diameter     float64
	overflow     bool
	simulation   *TankSimulation
}

var tankProperties = withCommon(TypeTank, func(t *Tank) *assetBase { return &t.assetBase },
	propertyTable[Tank]{
		"elevation":    floatProp(func(t *Tank) *float64 { return &t.elevation }),
		"initialLevel": floatProp(func(t *Tank) *float64 { return &t.initialLevel }),
		"minLevel":     floatProp(func(t *Tank) *float64 { return &t.minLevel }),
		"maxLevel":     floatProp(func(t *Tank) *float64 { return &t.maxLevel }),
		"minVolume":    floatProp(func(t *Tank) *float64 { return &t.minVolume }),
		"diameter":     floatProp(func(t *Tank) *float64 { return &t.diameter }),
		"overflow": {
			get: func(t *Tank) any { return t.overflow },
			set: func(t *Tank, v any) bool {
				b, ok := v.(bool)
				if ok {
					t.overflow = b
				}
				return ok
			},
		},
	})

func (t *Tank) Type() AssetType                         { return TypeTank }
func (t *Tank) InitialLevel() float64                   { return t.initialLevel }
func (t *Tank) MinLevel() float64                       { return t.minLevel }
func (t *Tank) MaxLevel() float64                       { return t.maxLevel }
func (t *Tank) MinVolume() float64                      { return t.minVolume }
func (t *Tank) Diameter() float64                       { return t.diameter }
func (t *Tank) Overflow() bool                          { return t.overflow }
func (t *Tank) HasProperty(name string) bool            { return tankProperties.has(name) }
func (t *Tank) GetProperty(name string) (any, bool)     { return tankProperties.get(t, name) }
func (t *Tank) SetProperty(name string, value any) bool { return tankProperties.set(t, name, value) }
func (t *Tank) ListProperties() []string                { return tankProperties.names() }
func (t *Tank) HasSimulation() bool                     { return t.simulation != nil }
func (t *Tank) ClearSimulation()                        { t.simulation = nil }

func (t *Tank) SetSimulation(s *TankSimulation) { t.simulation = s }

func (t *Tank) Pressure() (float64, bool) {
	if t.simulation == nil {
		return 0, false
	}
	return t.simulation.Pressure, true
}

func (t *Tank) Head() (float64, bool) {
	if t.simulation == nil {
		return 0, false
	}
	return t.simulation.Head, true
}

func (t *Tank) Level() (float64, bool) {
	if t.simulation == nil {
		return 0, false
	}
	return t.simulation.Level, true
}

func (t *Tank) Volume() (float64, bool) {
	if t.simulation == nil {
		return 0, false
	}
	return t.simulation.Volume, true
}

func (t *Tank) Copy() Asset {
	cp := *t
	return &cp
}

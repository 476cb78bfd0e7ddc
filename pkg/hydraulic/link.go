package hydraulic

import (
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// Link is a polyline asset connecting two nodes: pipe, pump or valve
type Link interface {
	Asset
	Coordinates() []geometry.Position
	// SetCoordinates replaces the polyline and recomputes the length
	SetCoordinates(coords []geometry.Position) error
	Connections() [2]AssetID
	SetConnections(start, end AssetID)
	Length() float64
	StartNodeID() AssetID
	EndNodeID() AssetID
	FirstVertex() geometry.Position
	LastVertex() geometry.Position
	IsStart(p geometry.Position) bool
	IsEnd(p geometry.Position) bool
	IntermediateVertices() []geometry.Position
	Segments() [][2]geometry.Position
	Reverse()

	link() *linkBase
}

type linkBase struct {
	assetBase
	coordinates []geometry.Position
	connections [2]AssetID
	length      float64
}

func (l *linkBase) IsNode() bool                      { return false }
func (l *linkBase) IsLink() bool                      { return true }
func (l *linkBase) Connections() [2]AssetID           { return l.connections }
func (l *linkBase) SetConnections(start, end AssetID) { l.connections = [2]AssetID{start, end} }
func (l *linkBase) Length() float64                   { return l.length }
func (l *linkBase) link() *linkBase                   { return l }
func (l *linkBase) StartNodeID() AssetID              { return l.connections[0] }
func (l *linkBase) EndNodeID() AssetID                { return l.connections[1] }
func (l *linkBase) Coordinates() []geometry.Position  { return l.coordinates }
func (l *linkBase) FirstVertex() geometry.Position    { return l.coordinates[0] }
func (l *linkBase) LastVertex() geometry.Position     { return l.coordinates[len(l.coordinates)-1] }
func (l *linkBase) IsStart(p geometry.Position) bool  { return l.FirstVertex().Equal(p) }
func (l *linkBase) IsEnd(p geometry.Position) bool    { return l.LastVertex().Equal(p) }

// SetCoordinates stores an owned copy of coords. Length is measured
// geodesically in meters, converted to the configured length unit and
// rounded to 2 decimals.
func (l *linkBase) SetCoordinates(coords []geometry.Position) error {
	if len(coords) < 2 {
		return NewError("setCoordinates").Asset(l.id).Cause(ErrDegenerateGeometry).Err()
	}
	l.coordinates = geometry.CopyLine(coords)
	l.length = measureLength(l.coordinates, l.units)
	return nil
}

func measureLength(coords []geometry.Position, units quantity.UnitsSpec) float64 {
	meters := geometry.LengthMeters(coords)
	target := units.Get(quantity.Length)
	if target == quantity.None {
		target = quantity.Meter
	}
	return quantity.Round(quantity.ConvertTo(quantity.Quantity{Value: meters, Unit: quantity.Meter}, target), 2)
}

// IntermediateVertices returns the vertices between the two endpoints
func (l *linkBase) IntermediateVertices() []geometry.Position {
	if len(l.coordinates) <= 2 {
		return nil
	}
	return geometry.CopyLine(l.coordinates[1 : len(l.coordinates)-1])
}

// Segments returns consecutive vertex pairs
func (l *linkBase) Segments() [][2]geometry.Position {
	segs := make([][2]geometry.Position, 0, len(l.coordinates)-1)
	for i := 1; i < len(l.coordinates); i++ {
		segs = append(segs, [2]geometry.Position{l.coordinates[i-1], l.coordinates[i]})
	}
	return segs
}

// Reverse swaps the connections and the polyline direction
func (l *linkBase) Reverse() {
	l.connections = [2]AssetID{l.connections[1], l.connections[0]}
	l.coordinates = geometry.ReverseLine(l.coordinates)
}

func (l *linkBase) copyGeometry() {
	l.coordinates = geometry.CopyLine(l.coordinates)
}

// Pipe statuses
type PipeStatus string

const (
	PipeOpen   PipeStatus = "open"
	PipeClosed PipeStatus = "closed"
	PipeCV     PipeStatus = "cv"
)

// Pipe is a conduit link
type Pipe struct {
	linkBase
	diameter      float64
	roughness     float64
	minorLoss     float64
	initialStatus PipeStatus
	simulation    *PipeSimulation
}

var pipeProperties = withCommon(TypePipe, func(p *Pipe) *assetBase { return &p.assetBase },
	propertyTable[Pipe]{
		"diameter":      floatProp(func(p *Pipe) *float64 { return &p.diameter }),
		"roughness":     floatProp(func(p *Pipe) *float64 { return &p.roughness }),
		"minorLoss":     floatProp(func(p *Pipe) *float64 { return &p.minorLoss }),
		"initialStatus": enumProp(func(p *Pipe) *PipeStatus { return &p.initialStatus }, PipeOpen, PipeClosed, PipeCV),
		"length":        {get: func(p *Pipe) any { return p.length }},
	})

func (p *Pipe) Type() AssetType                         { return TypePipe }
func (p *Pipe) Diameter() float64                       { return p.diameter }
func (p *Pipe) Roughness() float64                      { return p.roughness }
func (p *Pipe) MinorLoss() float64                      { return p.minorLoss }
func (p *Pipe) InitialStatus() PipeStatus               { return p.initialStatus }
func (p *Pipe) HasProperty(name string) bool            { return pipeProperties.has(name) }
func (p *Pipe) GetProperty(name string) (any, bool)     { return pipeProperties.get(p, name) }
func (p *Pipe) SetProperty(name string, value any) bool { return pipeProperties.set(p, name, value) }
func (p *Pipe) ListProperties() []string                { return pipeProperties.names() }
func (p *Pipe) HasSimulation() bool                     { return p.simulation != nil }
func (p *Pipe) ClearSimulation()                        { p.simulation = nil }

func (p *Pipe) SetSimulation(s *PipeSimulation) { p.simulation = s }

func (p *Pipe) Flow() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.Flow, true
}

func (p *Pipe) Velocity() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.Velocity, true
}

func (p *Pipe) Headloss() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.Headloss, true
}

func (p *Pipe) UnitHeadloss() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.UnitHeadloss, true
}

// Status is the solver-reported status, distinct from InitialStatus
func (p *Pipe) Status() (PipeStatus, bool) {
	if p.simulation == nil {
		return "", false
	}
	return p.simulation.Status, true
}

func (p *Pipe) Copy() Asset {
	cp := *p
	cp.copyGeometry()
	return &cp
}

// Pump definitions and statuses
type (
	PumpDefinition string
	PumpStatus     string
)

const (
	PumpPower       PumpDefinition = "power"
	PumpDesignPoint PumpDefinition = "design-point"
	PumpStandard    PumpDefinition = "standard"

	PumpOn  PumpStatus = "on"
	PumpOff PumpStatus = "off"
)

// Pump is a link adding head
type Pump struct {
	linkBase
	initialStatus  PumpStatus
	definitionType PumpDefinition
	power          float64
	speed          float64
	curveID        string
	simulation     *PumpSimulation
}

var pumpProperties = withCommon(TypePump, func(p *Pump) *assetBase { return &p.assetBase },
	propertyTable[Pump]{
		"initialStatus":  enumProp(func(p *Pump) *PumpStatus { return &p.initialStatus }, PumpOn, PumpOff),
		"definitionType": enumProp(func(p *Pump) *PumpDefinition { return &p.definitionType }, PumpPower, PumpDesignPoint, PumpStandard),
		"power":          floatProp(func(p *Pump) *float64 { return &p.power }),
		"speed":          floatProp(func(p *Pump) *float64 { return &p.speed }),
		"curveId": {
			get: func(p *Pump) any { return p.curveID },
			set: func(p *Pump, v any) bool {
				s, ok := v.(string)
				if ok && s != "" {
					p.curveID = s
				}
				return ok && s != ""
			},
		},
		"length": {get: func(p *Pump) any { return p.length }},
	})

func (p *Pump) Type() AssetType                         { return TypePump }
func (p *Pump) InitialStatus() PumpStatus               { return p.initialStatus }
func (p *Pump) DefinitionType() PumpDefinition          { return p.definitionType }
func (p *Pump) Power() float64                          { return p.power }
func (p *Pump) Speed() float64                          { return p.speed }
func (p *Pump) CurveID() string                         { return p.curveID }
func (p *Pump) HasProperty(name string) bool            { return pumpProperties.has(name) }
func (p *Pump) GetProperty(name string) (any, bool)     { return pumpProperties.get(p, name) }
func (p *Pump) SetProperty(name string, value any) bool { return pumpProperties.set(p, name, value) }
func (p *Pump) ListProperties() []string                { return pumpProperties.names() }
func (p *Pump) HasSimulation() bool                     { return p.simulation != nil }
func (p *Pump) ClearSimulation()                        { p.simulation = nil }

func (p *Pump) SetSimulation(s *PumpSimulation) { p.simulation = s }

func (p *Pump) Flow() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.Flow, true
}

func (p *Pump) Headloss() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return p.simulation.Headloss, true
}

// Head is the head added by the pump, the negated headloss
func (p *Pump) Head() (float64, bool) {
	if p.simulation == nil {
		return 0, false
	}
	return -p.simulation.Headloss, true
}

func (p *Pump) Status() (PumpStatus, bool) {
	if p.simulation == nil {
		return "", false
	}
	return p.simulation.Status, true
}

func (p *Pump) StatusWarning() (PumpStatusWarning, bool) {
	if p.simulation == nil || p.simulation.StatusWarning == "" {
		return "", false
	}
	return p.simulation.StatusWarning, true
}

func (p *Pump) Copy() Asset {
	cp := *p
	cp.copyGeometry()
	return &cp
}

// Valve kinds and statuses
type (
	ValveKind   string
	ValveStatus string
)

const (
	ValvePRV ValveKind = "prv"
	ValvePSV ValveKind = "psv"
	ValveFCV ValveKind = "fcv"
	ValvePBV ValveKind = "pbv"
	ValveTCV ValveKind = "tcv"

	ValveActive ValveStatus = "active"
	ValveOpen   ValveStatus = "open"
	ValveClosed ValveStatus = "closed"
)

// Valve is a control link
type Valve struct {
	linkBase
	diameter      float64
	minorLoss     float64
	kind          ValveKind
	setting       float64
	initialStatus ValveStatus
	simulation    *ValveSimulation
}

var valveProperties = withCommon(TypeValve, func(v *Valve) *assetBase { return &v.assetBase },
	propertyTable[Valve]{
		"diameter":      floatProp(func(v *Valve) *float64 { return &v.diameter }),
		"minorLoss":     floatProp(func(v *Valve) *float64 { return &v.minorLoss }),
		"setting":       floatProp(func(v *Valve) *float64 { return &v.setting }),
		"kind":          enumProp(func(v *Valve) *ValveKind { return &v.kind }, ValvePRV, ValvePSV, ValveFCV, ValvePBV, ValveTCV),
		"initialStatus": enumProp(func(v *Valve) *ValveStatus { return &v.initialStatus }, ValveActive, ValveOpen, ValveClosed),
		"length":        {get: func(v *Valve) any { return v.length }},
	})

func (v *Valve) Type() AssetType                         { return TypeValve }
func (v *Valve) Diameter() float64                       { return v.diameter }
func (v *Valve) MinorLoss() float64                      { return v.minorLoss }
func (v *Valve) Kind() ValveKind                         { return v.kind }
func (v *Valve) Setting() float64                        { return v.setting }
func (v *Valve) InitialStatus() ValveStatus              { return v.initialStatus }
func (v *Valve) HasProperty(name string) bool            { return valveProperties.has(name) }
func (v *Valve) GetProperty(name string) (any, bool)     { return valveProperties.get(v, name) }
func (v *Valve) SetProperty(name string, value any) bool { return valveProperties.set(v, name, value) }
func (v *Valve) ListProperties() []string                { return valveProperties.names() }
func (v *Valve) HasSimulation() bool                     { return v.simulation != nil }
func (v *Valve) ClearSimulation()                        { v.simulation = nil }

func (v *Valve) SetSimulation(s *ValveSimulation) { v.simulation = s }

func (v *Valve) Flow() (float64, bool) {
	if v.simulation == nil {
		return 0, false
	}
	return v.simulation.Flow, true
}

func (v *Valve) Velocity() (float64, bool) {
	if v.simulation == nil {
		return 0, false
	}
	return v.simulation.Velocity, true
}

func (v *Valve) Headloss() (float64, bool) {
	if v.simulation == nil {
		return 0, false
	}
	return v.simulation.Headloss, true
}

func (v *Valve) Status() (ValveStatus, bool) {
	if v.simulation == nil {
		return "", false
	}
	return v.simulation.Status, true
}

func (v *Valve) StatusWarning() (ValveStatusWarning, bool) {
	if v.simulation == nil || v.simulation.StatusWarning == "" {
		return "", false
	}
	return v.simulation.StatusWarning, true
}

func (v *Valve) Copy() Asset {
	cp := *v
	cp.copyGeometry()
	return &cp
}

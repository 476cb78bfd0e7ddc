package hydraulic

import (
	"strconv"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// Fixed length given to pumps and valves built without geometry
const shortLinkLength = 10

// Builder options. Zero values fall back to the defaults table; an ID of 0
// draws a fresh id and an empty Label generates one.

type JunctionOptions struct {
	ID          AssetID
	Label       string
	Coordinates geometry.Position
	Elevation   float64
	BaseDemand  float64
	Inactive    bool
}

type ReservoirOptions struct {
	ID          AssetID
	Label       string
	Coordinates geometry.Position
	Elevation   float64
	// Head wins over RelativeHead. Without either, head is the default
	// relative head above the elevation.
	Head         *float64
	RelativeHead *float64
	Inactive     bool
}

type TankOptions struct {
	ID           AssetID
	Label        string
	Coordinates  geometry.Position
	Elevation    float64
	InitialLevel *float64
	MinLevel     *float64
	MaxLevel     *float64
	MinVolume    *float64
	Diameter     float64
	Overflow     bool
	Inactive     bool
}

type PipeOptions struct {
	ID            AssetID
	Label         string
	Coordinates   []geometry.Position
	Connections   [2]AssetID
	InitialStatus PipeStatus
	Diameter      float64
	Roughness     float64
	MinorLoss     float64
	// Length overrides the length measured from Coordinates
	Length   *float64
	Inactive bool
}

type PumpOptions struct {
	ID             AssetID
	Label          string
	Coordinates    []geometry.Position
	Connections    [2]AssetID
	InitialStatus  PumpStatus
	DefinitionType PumpDefinition
	Power          float64
	Speed          *float64
	CurveID        string
	Inactive       bool
}

type ValveOptions struct {
	ID            AssetID
	Label         string
	Coordinates   []geometry.Position
	Connections   [2]AssetID
	Kind          ValveKind
	Diameter      float64
	MinorLoss     float64
	Setting       *float64
	InitialStatus ValveStatus
	Inactive      bool
}

// AssetBuilder creates assets with the model's units, defaults, id
// generator and label manager.
type AssetBuilder struct {
	units    quantity.UnitsSpec
	defaults quantity.Defaults
	ids      *ConsecutiveIDGenerator
	labels   *LabelManager
	points   *ConsecutiveIDGenerator
}

// NewAssetBuilder wires a builder to shared allocators
func NewAssetBuilder(units quantity.UnitsSpec, defaults quantity.Defaults, ids *ConsecutiveIDGenerator, labels *LabelManager) *AssetBuilder {
	return &AssetBuilder{
		units:    units,
		defaults: defaults,
		ids:      ids,
		labels:   labels,
		points:   NewConsecutiveIDGenerator(0),
	}
}

// Units returns the unit table assets are built with
func (b *AssetBuilder) Units() quantity.UnitsSpec { return b.units }

// Labels returns the shared label manager
func (b *AssetBuilder) Labels() *LabelManager { return b.labels }

// IDs returns the shared asset id generator
func (b *AssetBuilder) IDs() *ConsecutiveIDGenerator { return b.ids }

func (b *AssetBuilder) id(requested AssetID) AssetID {
	if requested == NoAssetID {
		return b.ids.NewID()
	}
	b.ids.Advance(requested)
	return requested
}

func (b *AssetBuilder) label(requested string, typ AssetType, id AssetID) string {
	if requested != "" {
		return requested
	}
	return b.labels.GenerateFor(typ, id)
}

func (b *AssetBuilder) base(id AssetID, label string, typ AssetType, inactive bool) assetBase {
	id = b.id(id)
	return assetBase{id: id, label: b.label(label, typ, id), isActive: !inactive, units: b.units}
}

func orDefault(v float64, defaults map[string]float64, name string) float64 {
	if v != 0 {
		return v
	}
	return defaults[name]
}

func ptrOrDefault(v *float64, defaults map[string]float64, name string) float64 {
	if v != nil {
		return *v
	}
	return defaults[name]
}

func (b *AssetBuilder) BuildJunction(o JunctionOptions) *Junction {
	return &Junction{
		nodeBase: nodeBase{
			assetBase:   b.base(o.ID, o.Label, TypeJunction, o.Inactive),
			coordinates: o.Coordinates,
			elevation:   orDefault(o.Elevation, b.defaults.Junction, quantity.Elevation),
		},
		baseDemand: orDefault(o.BaseDemand, b.defaults.Junction, quantity.BaseDemand),
	}
}

func (b *AssetBuilder) BuildReservoir(o ReservoirOptions) *Reservoir {
	elevation := orDefault(o.Elevation, b.defaults.Reservoir, quantity.Elevation)
	head := elevation + ptrOrDefault(o.RelativeHead, b.defaults.Reservoir, "relativeHead")
	if o.Head != nil {
		head = *o.Head
	}
	return &Reservoir{
		nodeBase: nodeBase{
			assetBase:   b.base(o.ID, o.Label, TypeReservoir, o.Inactive),
			coordinates: o.Coordinates,
			elevation:   elevation,
		},
		head: head,
	}
}

func (b *AssetBuilder) BuildTank(o TankOptions) *Tank {
	d := b.defaults.Tank
	return &Tank{
		nodeBase: nodeBase{
			assetBase:   b.base(o.ID, o.Label, TypeTank, o.Inactive),
			coordinates: o.Coordinates,
			elevation:   orDefault(o.Elevation, d, quantity.Elevation),
		},
		initialLevel: ptrOrDefault(o.InitialLevel, d, quantity.InitialLevel),
		minLevel:     ptrOrDefault(o.MinLevel, d, quantity.MinLevel),
		maxLevel:     ptrOrDefault(o.MaxLevel, d, quantity.MaxLevel),
		minVolume:    ptrOrDefault(o.MinVolume, d, quantity.MinVolume),
		diameter:     orDefault(o.Diameter, d, quantity.Diameter),
		overflow:     o.Overflow,
	}
}

// linkGeometry resolves coordinates and length. Explicit coordinates are
// measured; otherwise fallback coordinates get fallbackLength.
func (b *AssetBuilder) linkGeometry(coords, fallback []geometry.Position, fallbackLength float64) ([]geometry.Position, float64) {
	if len(coords) >= 2 {
		owned := geometry.CopyLine(coords)
		return owned, measureLength(owned, b.units)
	}
	return geometry.CopyLine(fallback), fallbackLength
}

func (b *AssetBuilder) BuildPipe(o PipeOptions) *Pipe {
	d := b.defaults.Pipe
	coords, length := b.linkGeometry(o.Coordinates,
		[]geometry.Position{{0, 0}, {1, 1}}, d[quantity.Length])
	if o.Length != nil {
		length = *o.Length
	}
	status := o.InitialStatus
	if status == "" {
		status = PipeOpen
	}
	return &Pipe{
		linkBase: linkBase{
			assetBase:   b.base(o.ID, o.Label, TypePipe, o.Inactive),
			coordinates: coords,
			connections: o.Connections,
			length:      length,
		},
		diameter:      orDefault(o.Diameter, d, quantity.Diameter),
		roughness:     orDefault(o.Roughness, d, quantity.Roughness),
		minorLoss:     orDefault(o.MinorLoss, d, quantity.MinorLoss),
		initialStatus: status,
	}
}

func (b *AssetBuilder) BuildPump(o PumpOptions) *Pump {
	coords, length := b.linkGeometry(o.Coordinates,
		[]geometry.Position{{0, 0}, {0, 0}}, shortLinkLength)
	status := o.InitialStatus
	if status == "" {
		status = PumpOn
	}
	definition := o.DefinitionType
	if definition == "" {
		definition = PumpDesignPoint
	}
	speed := 1.0
	if o.Speed != nil {
		speed = *o.Speed
	}
	base := b.base(o.ID, o.Label, TypePump, o.Inactive)
	curveID := o.CurveID
	if curveID == "" {
		curveID = strconv.FormatUint(uint64(base.id), 10)
	}
	return &Pump{
		linkBase: linkBase{
			assetBase:   base,
			coordinates: coords,
			connections: o.Connections,
			length:      length,
		},
		initialStatus:  status,
		definitionType: definition,
		power:          orDefault(o.Power, b.defaults.Pump, quantity.Power),
		speed:          speed,
		curveID:        curveID,
	}
}

func (b *AssetBuilder) BuildValve(o ValveOptions) *Valve {
	d := b.defaults.Valve
	coords, length := b.linkGeometry(o.Coordinates,
		[]geometry.Position{{0, 0}, {0, 0}}, shortLinkLength)
	kind := o.Kind
	if kind == "" {
		kind = ValveTCV
	}
	status := o.InitialStatus
	if status == "" {
		status = ValveActive
	}
	return &Valve{
		linkBase: linkBase{
			assetBase:   b.base(o.ID, o.Label, TypeValve, o.Inactive),
			coordinates: coords,
			connections: o.Connections,
			length:      length,
		},
		diameter:      orDefault(o.Diameter, d, quantity.Diameter),
		minorLoss:     orDefault(o.MinorLoss, d, quantity.MinorLoss),
		kind:          kind,
		setting:       ptrOrDefault(o.Setting, d, quantity.TCVSetting),
		initialStatus: status,
	}
}

// BuildNode builds a node of typ at coordinates with the type's defaults
func (b *AssetBuilder) BuildNode(typ AssetType, label string, coordinates geometry.Position, elevation float64) (Node, error) {
	switch typ {
	case TypeJunction:
		return b.BuildJunction(JunctionOptions{Label: label, Coordinates: coordinates, Elevation: elevation}), nil
	case TypeReservoir:
		return b.BuildReservoir(ReservoirOptions{Label: label, Coordinates: coordinates, Elevation: elevation}), nil
	case TypeTank:
		return b.BuildTank(TankOptions{Label: label, Coordinates: coordinates, Elevation: elevation}), nil
	default:
		return nil, NewError("buildNode").Context(string(typ)).Cause(ErrInvalidAssetType).Err()
	}
}

// BuildLink builds a link of typ with the type's defaults
func (b *AssetBuilder) BuildLink(typ AssetType, label string, coordinates []geometry.Position, connections [2]AssetID) (Link, error) {
	if len(coordinates) < 2 {
		return nil, NewError("buildLink").Context(string(typ)).Cause(ErrDegenerateGeometry).Err()
	}
	switch typ {
	case TypePipe:
		return b.BuildPipe(PipeOptions{Label: label, Coordinates: coordinates, Connections: connections}), nil
	case TypePump:
		return b.BuildPump(PumpOptions{Label: label, Coordinates: coordinates, Connections: connections}), nil
	case TypeValve:
		return b.BuildValve(ValveOptions{Label: label, Coordinates: coordinates, Connections: connections}), nil
	default:
		return nil, NewError("buildLink").Context(string(typ)).Cause(ErrInvalidAssetType).Err()
	}
}

// BuildCustomerPoint creates a disconnected point with a fresh id when id is 0
func (b *AssetBuilder) BuildCustomerPoint(id CustomerPointID, label string, coordinates geometry.Position, baseDemand float64) *CustomerPoint {
	if id == 0 {
		id = b.points.NewID()
	} else {
		b.points.Advance(id)
	}
	if label == "" {
		label = strconv.FormatUint(uint64(id), 10)
	}
	return BuildCustomerPoint(id, label, coordinates, baseDemand)
}

// Package netfile reads and writes network documents: a YAML listing of
// every asset, customer point and curve of a model.
package netfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
	"github.com/dd0wney/cluso-waternet/pkg/validation"
)

var ErrUnknownUnits = errors.New("unknown unit system")

// Document is the on-disk form of a model
type Document struct {
	Units           string `yaml:"units"`
	HeadlossFormula string `yaml:"headlossFormula,omitempty" validate:"omitempty,oneof=H-W D-W C-M"`

	Junctions  []JunctionDoc  `yaml:"junctions,omitempty" validate:"dive"`
	Reservoirs []ReservoirDoc `yaml:"reservoirs,omitempty" validate:"dive"`
	Tanks      []TankDoc      `yaml:"tanks,omitempty" validate:"dive"`
	Pipes      []PipeDoc      `yaml:"pipes,omitempty" validate:"dive"`
	Pumps      []PumpDoc      `yaml:"pumps,omitempty" validate:"dive"`
	Valves     []ValveDoc     `yaml:"valves,omitempty" validate:"dive"`

	CustomerPoints []CustomerPointDoc `yaml:"customerPoints,omitempty" validate:"dive"`
	Curves         []hydraulic.Curve  `yaml:"curves,omitempty"`
}

type NodeDoc struct {
	ID          hydraulic.AssetID `yaml:"id" validate:"required"`
	Label       string            `yaml:"label,omitempty"`
	Coordinates geometry.Position `yaml:"coordinates,flow" validate:"finite"`
	Elevation   float64           `yaml:"elevation" validate:"finite"`
	Inactive    bool              `yaml:"inactive,omitempty"`
}

type JunctionDoc struct {
	NodeDoc    `yaml:",inline"`
	BaseDemand float64 `yaml:"baseDemand,omitempty"`
}

type ReservoirDoc struct {
	NodeDoc `yaml:",inline"`
	Head    *float64 `yaml:"head,omitempty"`
}

type TankDoc struct {
	NodeDoc      `yaml:",inline"`
	InitialLevel *float64 `yaml:"initialLevel,omitempty"`
	MinLevel     *float64 `yaml:"minLevel,omitempty"`
	MaxLevel     *float64 `yaml:"maxLevel,omitempty"`
	MinVolume    *float64 `yaml:"minVolume,omitempty"`
	Diameter     float64  `yaml:"diameter,omitempty"`
	Overflow     bool     `yaml:"overflow,omitempty"`
}

type LinkDoc struct {
	ID          hydraulic.AssetID    `yaml:"id" validate:"required"`
	Label       string               `yaml:"label,omitempty"`
	Connections [2]hydraulic.AssetID `yaml:"connections,flow"`
	// Coordinates may be omitted for a straight link
	Coordinates []geometry.Position `yaml:"coordinates,omitempty" validate:"omitempty,min=2,dive,finite"`
	Length      *float64            `yaml:"length,omitempty"`
	Inactive    bool                `yaml:"inactive,omitempty"`
}

type PipeDoc struct {
	LinkDoc       `yaml:",inline"`
	Diameter      float64              `yaml:"diameter,omitempty"`
	Roughness     float64              `yaml:"roughness,omitempty"`
	MinorLoss     float64              `yaml:"minorLoss,omitempty"`
	InitialStatus hydraulic.PipeStatus `yaml:"initialStatus,omitempty" validate:"omitempty,oneof=open closed cv"`
}

type PumpDoc struct {
	LinkDoc        `yaml:",inline"`
	DefinitionType hydraulic.PumpDefinition `yaml:"definitionType,omitempty" validate:"omitempty,oneof=power design-point standard"`
	Power          float64                  `yaml:"power,omitempty"`
	Speed          *float64                 `yaml:"speed,omitempty"`
	CurveID        string                   `yaml:"curveId,omitempty"`
	InitialStatus  hydraulic.PumpStatus     `yaml:"initialStatus,omitempty" validate:"omitempty,oneof=on off"`
}

type ValveDoc struct {
	LinkDoc       `yaml:",inline"`
	Kind          hydraulic.ValveKind   `yaml:"kind,omitempty" validate:"omitempty,oneof=prv psv fcv pbv tcv"`
	Diameter      float64               `yaml:"diameter,omitempty"`
	MinorLoss     float64               `yaml:"minorLoss,omitempty"`
	Setting       *float64              `yaml:"setting,omitempty"`
	InitialStatus hydraulic.ValveStatus `yaml:"initialStatus,omitempty" validate:"omitempty,oneof=active open closed"`
}

type CustomerPointDoc struct {
	ID          hydraulic.CustomerPointID `yaml:"id" validate:"required"`
	Coordinates geometry.Position         `yaml:"coordinates,flow" validate:"finite"`
	BaseDemand  float64                   `yaml:"baseDemand"`
	Connection  *ConnectionDoc            `yaml:"connection,omitempty"`
}

type ConnectionDoc struct {
	PipeID     hydraulic.AssetID `yaml:"pipeId" validate:"required"`
	JunctionID hydraulic.AssetID `yaml:"junctionId" validate:"required"`
	SnapPoint  geometry.Position `yaml:"snapPoint,flow" validate:"finite"`
}

// Read decodes and validates a document
func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	if err := validation.Struct(doc); err != nil {
		return nil, fmt.Errorf("network document: %w", err)
	}
	return &doc, nil
}

// Write encodes doc as YAML
func Write(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	return enc.Close()
}

// Load reads a network file into a model
func Load(path string) (*hydraulic.HydraulicModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Model()
}

// Save writes m to path
func Save(path string, m *hydraulic.HydraulicModel) error {
	return SaveDocument(path, FromModel(m, ""))
}

// SaveDocument writes doc to path
func SaveDocument(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Model builds a snapshot. Nodes are added before links so every link finds
// its endpoints.
func (d *Document) Model() (*hydraulic.HydraulicModel, error) {
	preset, ok := quantity.PresetByID(d.Units)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnits, d.Units)
	}
	base := hydraulic.InitializeHydraulicModel(hydraulic.ModelConfig{
		Units:           preset.Units,
		Defaults:        preset.Defaults.Copy(),
		HeadlossFormula: hydraulic.HeadlossFormula(d.HeadlossFormula),
	})
	b := hydraulic.NewNetworkBuilderFor(base)

	for _, j := range d.Junctions {
		b.AddJunction(hydraulic.JunctionOptions{
			ID: j.ID, Label: j.Label, Coordinates: j.Coordinates, Elevation: j.Elevation,
			BaseDemand: j.BaseDemand, Inactive: j.Inactive,
		})
	}
	for _, r := range d.Reservoirs {
		b.AddReservoir(hydraulic.ReservoirOptions{
			ID: r.ID, Label: r.Label, Coordinates: r.Coordinates, Elevation: r.Elevation,
			Head: r.Head, Inactive: r.Inactive,
		})
	}
	for _, t := range d.Tanks {
		b.AddTank(hydraulic.TankOptions{
			ID: t.ID, Label: t.Label, Coordinates: t.Coordinates, Elevation: t.Elevation,
			InitialLevel: t.InitialLevel, MinLevel: t.MinLevel, MaxLevel: t.MaxLevel, MinVolume: t.MinVolume,
			Diameter: t.Diameter, Overflow: t.Overflow, Inactive: t.Inactive,
		})
	}
	for _, p := range d.Pipes {
		b.AddPipe(hydraulic.PipeOptions{
			ID: p.ID, Label: p.Label, Coordinates: p.Coordinates, Connections: p.Connections,
			InitialStatus: p.InitialStatus, Diameter: p.Diameter, Roughness: p.Roughness, MinorLoss: p.MinorLoss,
			Length: p.Length, Inactive: p.Inactive,
		})
	}
	for _, p := range d.Pumps {
		b.AddPump(hydraulic.PumpOptions{
			ID: p.ID, Label: p.Label, Coordinates: p.Coordinates, Connections: p.Connections,
			InitialStatus: p.InitialStatus, DefinitionType: p.DefinitionType, Power: p.Power,
			Speed: p.Speed, CurveID: p.CurveID, Inactive: p.Inactive,
		})
	}
	for _, v := range d.Valves {
		b.AddValve(hydraulic.ValveOptions{
			ID: v.ID, Label: v.Label, Coordinates: v.Coordinates, Connections: v.Connections,
			Kind: v.Kind, Diameter: v.Diameter, MinorLoss: v.MinorLoss, Setting: v.Setting,
			InitialStatus: v.InitialStatus, Inactive: v.Inactive,
		})
	}
	for _, cp := range d.CustomerPoints {
		var conn *hydraulic.Connection
		if cp.Connection != nil {
			conn = &hydraulic.Connection{
				PipeID:     cp.Connection.PipeID,
				SnapPoint:  cp.Connection.SnapPoint,
				JunctionID: cp.Connection.JunctionID,
			}
		}
		b.AddCustomerPoint(cp.ID, cp.Coordinates, cp.BaseDemand, conn)
	}
	for _, c := range d.Curves {
		b.AddCurve(c)
	}
	return b.Build()
}

// FromModel lists m as a document. units names the preset written to the
// document; empty means metric.
func FromModel(m *hydraulic.HydraulicModel, units string) *Document {
	if units == "" {
		units = "metric"
	}
	d := &Document{Units: units, HeadlossFormula: string(m.HeadlossFormula)}

	for _, a := range m.Assets.Values() {
		switch a := a.(type) {
		case *hydraulic.Junction:
			d.Junctions = append(d.Junctions, JunctionDoc{NodeDoc: nodeDoc(a), BaseDemand: a.BaseDemand()})
		case *hydraulic.Reservoir:
			d.Reservoirs = append(d.Reservoirs, ReservoirDoc{NodeDoc: nodeDoc(a), Head: ptr(a.Head())})
		case *hydraulic.Tank:
			d.Tanks = append(d.Tanks, TankDoc{
				NodeDoc:      nodeDoc(a),
				InitialLevel: ptr(a.InitialLevel()),
				MinLevel:     ptr(a.MinLevel()),
				MaxLevel:     ptr(a.MaxLevel()),
				MinVolume:    ptr(a.MinVolume()),
				Diameter:     a.Diameter(),
				Overflow:     a.Overflow(),
			})
		case *hydraulic.Pipe:
			d.Pipes = append(d.Pipes, PipeDoc{
				LinkDoc:       linkDoc(a),
				Diameter:      a.Diameter(),
				Roughness:     a.Roughness(),
				MinorLoss:     a.MinorLoss(),
				InitialStatus: a.InitialStatus(),
			})
		case *hydraulic.Pump:
			d.Pumps = append(d.Pumps, PumpDoc{
				LinkDoc:        linkDoc(a),
				DefinitionType: a.DefinitionType(),
				Power:          a.Power(),
				Speed:          ptr(a.Speed()),
				CurveID:        a.CurveID(),
				InitialStatus:  a.InitialStatus(),
			})
		case *hydraulic.Valve:
			d.Valves = append(d.Valves, ValveDoc{
				LinkDoc:       linkDoc(a),
				Kind:          a.Kind(),
				Diameter:      a.Diameter(),
				MinorLoss:     a.MinorLoss(),
				Setting:       ptr(a.Setting()),
				InitialStatus: a.InitialStatus(),
			})
		}
	}

	for _, cp := range m.CustomerPoints.Values() {
		doc := CustomerPointDoc{ID: cp.ID, Coordinates: cp.Coordinates, BaseDemand: cp.BaseDemand}
		if cp.Connection != nil {
			doc.Connection = &ConnectionDoc{
				PipeID:     cp.Connection.PipeID,
				JunctionID: cp.Connection.JunctionID,
				SnapPoint:  cp.Connection.SnapPoint,
			}
		}
		d.CustomerPoints = append(d.CustomerPoints, doc)
	}

	ids := make([]string, 0, len(m.Curves))
	for id := range m.Curves {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		d.Curves = append(d.Curves, m.Curves[id].Copy())
	}
	return d
}

func nodeDoc(n hydraulic.Node) NodeDoc {
	return NodeDoc{
		ID:          n.ID(),
		Label:       n.Label(),
		Coordinates: n.Coordinates(),
		Elevation:   n.Elevation(),
		Inactive:    !n.IsActive(),
	}
}

func linkDoc(l hydraulic.Link) LinkDoc {
	return LinkDoc{
		ID:          l.ID(),
		Label:       l.Label(),
		Connections: l.Connections(),
		Coordinates: geometry.CopyLine(l.Coordinates()),
		Length:      ptr(l.Length()),
		Inactive:    !l.IsActive(),
	}
}

func ptr[T any](v T) *T { return &v }

package hydraulic

import "slices"

// CurveType names what a curve's axes mean
type CurveType string

const (
	CurvePump       CurveType = "pump"
	CurveEfficiency CurveType = "efficiency"
	CurveVolume     CurveType = "volume"
	CurveHeadloss   CurveType = "headloss"
)

// CurvePoint is one (x, y) sample. For pump curves x is flow and y is head.
type CurvePoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Curve is a named sample table referenced by pumps
type Curve struct {
	ID     string       `yaml:"id"`
	Type   CurveType    `yaml:"type"`
	Points []CurvePoint `yaml:"points"`
}

func (c Curve) Copy() Curve {
	c.Points = slices.Clone(c.Points)
	return c
}

// PumpDefinitionFor classifies a pump curve: a single point is a design
// point, three or more form a standard curve.
func PumpDefinitionFor(c Curve) PumpDefinition {
	if len(c.Points) == 1 {
		return PumpDesignPoint
	}
	return PumpStandard
}

// Curves is the model's curve table keyed by curve id
type Curves map[string]Curve

func (c Curves) Copy() Curves {
	out := make(Curves, len(c))
	for id, curve := range c {
		out[id] = curve.Copy()
	}
	return out
}

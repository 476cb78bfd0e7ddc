package operations

import (
	"fmt"
	"strconv"

	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// ChangePumpCurveInput sets how a pump is defined. Power is used by the
// power definition and Points by the curve definitions.
type ChangePumpCurveInput struct {
	PumpID         hydraulic.AssetID        `validate:"required"`
	DefinitionType hydraulic.PumpDefinition `validate:"required,oneof=power design-point standard"`
	Power          float64                  `validate:"gte=0"`
	Points         []hydraulic.CurvePoint
}

// ChangePumpCurve updates a pump's definition type. Curve definitions also
// write the pump's curve table entry: one point for a design point, three
// or more for a standard curve, with x as flow and y as head.
func ChangePumpCurve(m *hydraulic.HydraulicModel, in ChangePumpCurveInput) (hydraulic.Diff, error) {
	if err := validateInput(OpChangePumpCurve, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	a, _ := m.Assets.Get(in.PumpID)
	pump, ok := a.(*hydraulic.Pump)
	if !ok {
		return hydraulic.Diff{}, hydraulic.NewError(OpChangePumpCurve).Asset(in.PumpID).
			Cause(fmt.Errorf("%w: invalid pump id", hydraulic.ErrInvalidAssetType)).Err()
	}

	cp := pump.Copy()
	cp.SetProperty("definitionType", in.DefinitionType)
	diff := hydraulic.Diff{Note: "Change pump curve", PutAssets: []hydraulic.Asset{cp}}

	if in.DefinitionType == hydraulic.PumpPower {
		cp.SetProperty("power", in.Power)
		return diff, nil
	}

	switch n := len(in.Points); {
	case in.DefinitionType == hydraulic.PumpDesignPoint && n != 1:
		return hydraulic.Diff{}, invalidInput(OpChangePumpCurve, "a design point needs 1 point, got %d", n)
	case in.DefinitionType == hydraulic.PumpStandard && n < 3:
		return hydraulic.Diff{}, invalidInput(OpChangePumpCurve, "a standard curve needs at least 3 points, got %d", n)
	}

	curveID := pump.CurveID()
	if curveID == "" {
		curveID = strconv.FormatUint(uint64(pump.ID()), 10)
	}
	cp.SetProperty("curveId", curveID)
	curve := hydraulic.Curve{ID: curveID, Type: hydraulic.CurvePump, Points: make([]hydraulic.CurvePoint, len(in.Points))}
	copy(curve.Points, in.Points)
	diff.PutCurves = []hydraulic.Curve{curve}
	return diff, nil
}

package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

func pumpStation(t *testing.T) *hydraulic.HydraulicModel {
	t.Helper()
	m, err := hydraulic.NewNetworkBuilder(quantity.Metric()).
		AddReservoir(hydraulic.ReservoirOptions{ID: 1, Coordinates: geometry.Position{0, 0}}).
		AddJunction(hydraulic.JunctionOptions{ID: 2, Coordinates: geometry.Position{0.001, 0}}).
		AddPump(hydraulic.PumpOptions{ID: 5, Connections: [2]hydraulic.AssetID{1, 2}}).
		AddCurve(hydraulic.Curve{ID: "5", Type: hydraulic.CurvePump, Points: []hydraulic.CurvePoint{{X: 1, Y: 1}}}).
		Build()
	require.NoError(t, err)
	return m
}

func TestChangePumpCurveStandard(t *testing.T) {
	m := pumpStation(t)
	points := []hydraulic.CurvePoint{{X: 0, Y: 60}, {X: 20, Y: 50}, {X: 40, Y: 30}}

	diff, err := ChangePumpCurve(m, ChangePumpCurveInput{PumpID: 5, DefinitionType: hydraulic.PumpStandard, Points: points})
	require.NoError(t, err)
	assert.Equal(t, "Change pump curve", diff.Note)

	pump := diff.PutAssets[0].(*hydraulic.Pump)
	assert.Equal(t, hydraulic.PumpStandard, pump.DefinitionType())
	require.Len(t, diff.PutCurves, 1)
	assert.Equal(t, "5", diff.PutCurves[0].ID)
	assert.Equal(t, points, diff.PutCurves[0].Points)

	points[0].Y = 99
	assert.Equal(t, 60.0, diff.PutCurves[0].Points[0].Y, "curve owns its points")

	next := hydraulic.ApplyDiff(m, diff)
	assert.Len(t, next.Curves["5"].Points, 3)
	assert.Len(t, m.Curves["5"].Points, 1)
}

func TestChangePumpCurvePower(t *testing.T) {
	m := pumpStation(t)

	diff, err := ChangePumpCurve(m, ChangePumpCurveInput{PumpID: 5, DefinitionType: hydraulic.PumpPower, Power: 30})
	require.NoError(t, err)
	pump := diff.PutAssets[0].(*hydraulic.Pump)
	assert.Equal(t, hydraulic.PumpPower, pump.DefinitionType())
	assert.Equal(t, 30.0, pump.Power())
	assert.Empty(t, diff.PutCurves)
}

func TestChangePumpCurveErrors(t *testing.T) {
	m := pumpStation(t)

	tests := []struct {
		name string
		in   ChangePumpCurveInput
		want error
	}{
		{"not a pump", ChangePumpCurveInput{PumpID: 2, DefinitionType: hydraulic.PumpPower}, hydraulic.ErrInvalidAssetType},
		{"unknown definition", ChangePumpCurveInput{PumpID: 5, DefinitionType: "magic"}, hydraulic.ErrInvalidInput},
		{"design point needs one point", ChangePumpCurveInput{PumpID: 5, DefinitionType: hydraulic.PumpDesignPoint,
			Points: []hydraulic.CurvePoint{{X: 1, Y: 1}, {X: 2, Y: 2}}}, hydraulic.ErrInvalidInput},
		{"standard needs three points", ChangePumpCurveInput{PumpID: 5, DefinitionType: hydraulic.PumpStandard,
			Points: []hydraulic.CurvePoint{{X: 1, Y: 1}}}, hydraulic.ErrInvalidInput},
		{"negative power", ChangePumpCurveInput{PumpID: 5, DefinitionType: hydraulic.PumpPower, Power: -1}, hydraulic.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChangePumpCurve(m, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

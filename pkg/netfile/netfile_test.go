package netfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

const network = `
units: metric
headlossFormula: D-W
junctions:
  - {id: 1, label: J1, coordinates: [0, 0], elevation: 10, baseDemand: 2}
  - {id: 2, coordinates: [0.001, 0], elevation: 12}
reservoirs:
  - {id: 3, label: R1, coordinates: [-0.001, 0], elevation: 50, head: 80}
pipes:
  - id: 10
    label: MAIN
    connections: [1, 2]
    coordinates: [[0.5, 0.5], [0.0005, 0.0001], [9, 9]]
    diameter: 200
    initialStatus: cv
pumps:
  - {id: 11, connections: [3, 1], definitionType: standard, curveId: C1}
customerPoints:
  - id: 7
    coordinates: [0.0002, 0.0001]
    baseDemand: 0.5
    connection: {pipeId: 10, junctionId: 1, snapPoint: [0.0002, 0]}
curves:
  - {id: C1, type: pump, points: [{x: 0, y: 60}, {x: 20, y: 50}, {x: 40, y: 30}]}
`

func TestReadModel(t *testing.T) {
	doc, err := Read(strings.NewReader(network))
	require.NoError(t, err)
	m, err := doc.Model()
	require.NoError(t, err)

	assert.Equal(t, hydraulic.DarcyWeisbach, m.HeadlossFormula)
	assert.Equal(t, 5, m.Assets.Len())

	pipe := m.Assets.GetPipe(10)
	require.NotNil(t, pipe)
	assert.Equal(t, "MAIN", pipe.Label())
	assert.Equal(t, hydraulic.PipeCV, pipe.InitialStatus())
	assert.Equal(t, []geometry.Position{{0, 0}, {0.0005, 0.0001}, {0.001, 0}}, pipe.Coordinates(), "ends snap to the nodes")
	assert.Greater(t, pipe.Length(), 0.0)

	j2 := m.Assets.GetJunction(2)
	assert.NotEmpty(t, j2.Label(), "missing labels are generated")

	assert.Equal(t, []hydraulic.AssetID{10, 11}, m.Topology.GetLinks(1))
	assert.Equal(t, 80.0, m.Assets.GetNode(3).(*hydraulic.Reservoir).Head())

	cp, ok := m.CustomerPoints.Get(7)
	require.True(t, ok)
	require.True(t, cp.IsConnected())
	assert.Equal(t, hydraulic.AssetID(1), cp.Connection.JunctionID)
	assert.Len(t, m.Curves["C1"].Points, 3)
}

func TestRoundTripThroughFile(t *testing.T) {
	doc, err := Read(strings.NewReader(network))
	require.NoError(t, err)
	m, err := doc.Model()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, Save(path, m))
	back, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, m.Assets.Len(), back.Assets.Len())
	for _, a := range m.Assets.Values() {
		b, ok := back.Assets.Get(a.ID())
		require.True(t, ok, "asset %d", a.ID())
		assert.Equal(t, a.Type(), b.Type())
		assert.Equal(t, a.Label(), b.Label())
		assert.Equal(t, a.IsActive(), b.IsActive())
		if l, ok := a.(hydraulic.Link); ok {
			bl := b.(hydraulic.Link)
			assert.Equal(t, l.Coordinates(), bl.Coordinates())
			assert.Equal(t, l.Connections(), bl.Connections())
			assert.InDelta(t, l.Length(), bl.Length(), 1e-9)
		}
	}
	assert.Equal(t, m.CustomerPoints.Values(), back.CustomerPoints.Values())
	assert.Equal(t, m.Curves, back.Curves)
	assert.Equal(t, m.HeadlossFormula, back.HeadlossFormula)
}

func TestReadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "units: metric\njunctions:\n  - {id: 1, coordinates: [0, 0], colour: blue}\n",
		"missing id":       "units: metric\njunctions:\n  - {coordinates: [0, 0]}\n",
		"bad status":       "units: metric\npipes:\n  - {id: 1, connections: [2, 3], initialStatus: ajar}\n",
		"one vertex":       "units: metric\npipes:\n  - {id: 1, connections: [2, 3], coordinates: [[0, 0]]}\n",
		"short coordinate": "units: metric\njunctions:\n  - {id: 1, coordinates: [0]}\n",
		"not yaml":         "units: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(in)); err == nil {
				t.Errorf("Read() error = nil, want an error")
			}
		})
	}
}

func TestModelErrors(t *testing.T) {
	_, err := (&Document{Units: "cubits"}).Model()
	assert.ErrorIs(t, err, ErrUnknownUnits)

	doc := &Document{Units: "metric", Pipes: []PipeDoc{{LinkDoc: LinkDoc{ID: 5, Connections: [2]hydraulic.AssetID{1, 2}}}}}
	_, err = doc.Model()
	assert.ErrorIs(t, err, hydraulic.ErrAssetNotFound)
}

func TestWriteOmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Document{Units: "metric", Junctions: []JunctionDoc{{NodeDoc: NodeDoc{ID: 1}}}}))
	out := buf.String()
	assert.Contains(t, out, "junctions:")
	assert.Contains(t, out, "coordinates: [0, 0]")
	assert.NotContains(t, out, "pipes:")
}

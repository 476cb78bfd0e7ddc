package operations

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

func TestReplaceNode(t *testing.T) {
	m := chain(t, chainOptions{})

	diff, err := ReplaceNode(m, ReplaceNodeInput{OldNodeID: 2, NewNodeType: hydraulic.TypeTank})
	require.NoError(t, err)

	assert.Equal(t, "Replace junction with tank", diff.Note)
	assert.Equal(t, []hydraulic.AssetID{2}, diff.DeleteAssets)
	require.Len(t, diff.PutAssets, 3)

	tank := diff.PutAssets[0].(*hydraulic.Tank)
	assert.NotEqual(t, hydraulic.AssetID(2), tank.ID())
	assert.Equal(t, geometry.Position{10, 0}, tank.Coordinates())
	assert.True(t, strings.HasPrefix(tank.Label(), "T"), "fresh label %q", tank.Label())
	assert.True(t, tank.IsActive())

	assert.Equal(t, [2]hydraulic.AssetID{1, tank.ID()}, diff.PutAssets[1].(hydraulic.Link).Connections())
	assert.Equal(t, [2]hydraulic.AssetID{tank.ID(), 3}, diff.PutAssets[2].(hydraulic.Link).Connections())

	// a tank cannot serve customers, so both points fall back to J1
	require.Len(t, diff.PutCustomerPoints, 2)
	for _, cp := range diff.PutCustomerPoints {
		assert.Equal(t, hydraulic.AssetID(1), cp.Connection.JunctionID)
	}

	_, err = ReplaceNode(m, ReplaceNodeInput{OldNodeID: 10, NewNodeType: hydraulic.TypeTank})
	assert.ErrorIs(t, err, hydraulic.ErrAssetNotFound)
	_, err = ReplaceNode(m, ReplaceNodeInput{OldNodeID: 2, NewNodeType: hydraulic.TypePipe})
	assert.ErrorIs(t, err, hydraulic.ErrInvalidInput)
}

func TestReplaceLink(t *testing.T) {
	m := chain(t, chainOptions{secondInactive: true})

	diff, err := ReplaceLink(m, ReplaceLinkInput{LinkID: 10, NewLinkType: hydraulic.TypeValve})
	require.NoError(t, err)
	assert.Equal(t, "Replace pipe", diff.Note)
	assert.Equal(t, []hydraulic.AssetID{10}, diff.DeleteAssets)

	valve := diff.PutAssets[0].(*hydraulic.Valve)
	old := m.Assets.GetPipe(10)
	assert.Equal(t, old.Coordinates(), valve.Coordinates())
	assert.Equal(t, old.Connections(), valve.Connections())
	diameter, _ := valve.GetProperty("diameter")
	assert.Equal(t, old.Diameter(), diameter, "shared properties are copied")
	assert.Empty(t, diff.PutCurves)

	require.Len(t, diff.PutCustomerPoints, 2)
	for _, cp := range diff.PutCustomerPoints {
		assert.False(t, cp.IsConnected())
	}

	pumpDiff, err := ReplaceLink(m, ReplaceLinkInput{LinkID: 11, NewLinkType: hydraulic.TypePump})
	require.NoError(t, err)
	pump := pumpDiff.PutAssets[0].(*hydraulic.Pump)
	assert.False(t, pump.IsActive(), "isActive is kept")
	require.Len(t, pumpDiff.PutCurves, 1)
	assert.Equal(t, strconv.FormatUint(uint64(pump.ID()), 10), pumpDiff.PutCurves[0].ID)
	assert.Equal(t, pump.CurveID(), pumpDiff.PutCurves[0].ID)
	assert.Nil(t, pumpDiff.PutCustomerPoints)
}

func TestReplaceLinkKeepsPipePoints(t *testing.T) {
	m := chain(t, chainOptions{})

	diff, err := ReplaceLink(m, ReplaceLinkInput{LinkID: 10, NewLinkType: hydraulic.TypePipe})
	require.NoError(t, err)
	pipe := diff.PutAssets[0]
	require.Len(t, diff.PutCustomerPoints, 2)
	for _, cp := range diff.PutCustomerPoints {
		require.True(t, cp.IsConnected())
		assert.Equal(t, pipe.ID(), cp.Connection.PipeID)
	}
}

func TestReverseLink(t *testing.T) {
	m := chain(t, chainOptions{})

	diff, err := ReverseLink(m, ReverseLinkInput{LinkID: 10})
	require.NoError(t, err)
	assert.Equal(t, "Reverse pipe", diff.Note)
	l := diff.PutAssets[0].(hydraulic.Link)
	assert.Equal(t, [2]hydraulic.AssetID{2, 1}, l.Connections())
	assert.Equal(t, []geometry.Position{{10, 0}, {0, 0}}, l.Coordinates())
	assert.Equal(t, [2]hydraulic.AssetID{1, 2}, m.Assets.GetLink(10).Connections())

	for _, id := range []hydraulic.AssetID{1, 999} {
		_, err := ReverseLink(m, ReverseLinkInput{LinkID: id})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "link with id "+strconv.Itoa(int(id))+" not found")
	}
}

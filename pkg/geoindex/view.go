package geoindex

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

func decodePosition(b []byte, off int) geometry.Position {
	return geometry.Position{
		buffers.Decimal[float64](b, off),
		buffers.Decimal[float64](b, off+buffers.DecimalSize),
	}
}

func decodeBounds(b []byte, off int) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: buffers.Decimal[float64](b, off), Y: buffers.Decimal[float64](b, off+8)},
		Max: r2.Vec{X: buffers.Decimal[float64](b, off+16), Y: buffers.Decimal[float64](b, off+24)},
	}
}

func decodeConnections(b []byte, off int) [2]uint32 {
	return [2]uint32{buffers.Number[uint32](b, off), buffers.Number[uint32](b, off+buffers.NumberSize)}
}

func decodeLine(b []byte, off int) []geometry.Position {
	n := int(buffers.Number[uint32](b, off))
	line := make([]geometry.Position, n)
	for i := range line {
		line[i] = decodePosition(b, off+buffers.NumberSize+i*PositionSize)
	}
	return line
}

// View reads an Encoded bundle. It holds no asset references: everything
// the containment kernel and the nearest-node search need comes from the
// buffers.
type View struct {
	nodeIDs         *buffers.FixedSizeView[uint32]
	nodeTypes       *buffers.FixedSizeView[uint8]
	nodePositions   *buffers.FixedSizeView[geometry.Position]
	nodeLinks       *buffers.VariableSizeView[[]uint32]
	linkIDs         *buffers.FixedSizeView[uint32]
	linkTypes       *buffers.FixedSizeView[uint8]
	linkConnections *buffers.FixedSizeView[[2]uint32]
	linkBounds      *buffers.FixedSizeView[r2.Box]
	linkVertices    *buffers.VariableSizeView[[]geometry.Position]
	assetIndex      *buffers.FixedSizeView[uint32]
	bounds          r2.Box
}

// Decode builds a View over e. Section counts must agree with each other.
func Decode(e *Encoded) (*View, error) {
	v := &View{}
	var err error
	if v.nodeIDs, err = buffers.NewFixedSizeView(e.NodeIDs, buffers.NumberSize, buffers.Number[uint32], 0); err != nil {
		return nil, fmt.Errorf("node ids: %w", err)
	}
	if v.nodeTypes, err = buffers.NewFixedSizeView(e.NodeTypes, buffers.TypeSize, buffers.Type[uint8], 0); err != nil {
		return nil, fmt.Errorf("node types: %w", err)
	}
	if v.nodePositions, err = buffers.NewFixedSizeView(e.NodePositions, PositionSize, decodePosition, BoundsSize); err != nil {
		return nil, fmt.Errorf("node positions: %w", err)
	}
	if v.nodeLinks, err = buffers.NewVariableSizeView(e.NodeLinks, buffers.ReadIDs); err != nil {
		return nil, fmt.Errorf("node links: %w", err)
	}
	if v.linkIDs, err = buffers.NewFixedSizeView(e.LinkIDs, buffers.NumberSize, buffers.Number[uint32], 0); err != nil {
		return nil, fmt.Errorf("link ids: %w", err)
	}
	if v.linkTypes, err = buffers.NewFixedSizeView(e.LinkTypes, buffers.TypeSize, buffers.Type[uint8], 0); err != nil {
		return nil, fmt.Errorf("link types: %w", err)
	}
	if v.linkConnections, err = buffers.NewFixedSizeView(e.LinkConnections, ConnectionsSize, decodeConnections, 0); err != nil {
		return nil, fmt.Errorf("link connections: %w", err)
	}
	if v.linkBounds, err = buffers.NewFixedSizeView(e.LinkBounds, BoundsSize, decodeBounds, 0); err != nil {
		return nil, fmt.Errorf("link bounds: %w", err)
	}
	if v.linkVertices, err = buffers.NewVariableSizeView(e.LinkVertices, decodeLine); err != nil {
		return nil, fmt.Errorf("link vertices: %w", err)
	}
	if v.assetIndex, err = buffers.NewFixedSizeView(e.AssetIndex, buffers.NumberSize, buffers.Number[uint32], 0); err != nil {
		return nil, fmt.Errorf("asset index: %w", err)
	}

	nodes, links := v.nodeIDs.Count(), v.linkIDs.Count()
	checks := []struct {
		name      string
		got, want int
	}{
		{"node types", v.nodeTypes.Count(), nodes},
		{"node positions", v.nodePositions.Count(), nodes},
		{"node links", v.nodeLinks.Count(), nodes},
		{"link types", v.linkTypes.Count(), links},
		{"link connections", v.linkConnections.Count(), links},
		{"link bounds", v.linkBounds.Count(), links},
		{"link vertices", v.linkVertices.Count(), links},
	}
	for _, c := range checks {
		if c.got != c.want {
			return nil, fmt.Errorf("%w: %s has %d records, want %d", buffers.ErrCountMismatch, c.name, c.got, c.want)
		}
	}
	v.bounds = decodeBounds(v.nodePositions.Header(), 0)
	return v, nil
}

func (v *View) NodeCount() int { return v.nodeIDs.Count() }
func (v *View) LinkCount() int { return v.linkIDs.Count() }

// Bounds covers every node and link vertex
func (v *View) Bounds() r2.Box { return v.bounds }

// NodeID maps a dense node index to its asset id
func (v *View) NodeID(dense int) (hydraulic.AssetID, error) { return v.nodeIDs.GetByID(dense) }

// LinkID maps a dense link index to its asset id
func (v *View) LinkID(dense int) (hydraulic.AssetID, error) { return v.linkIDs.GetByID(dense) }

func (v *View) NodePosition(dense int) (geometry.Position, error) {
	return v.nodePositions.GetByID(dense)
}

func (v *View) NodeType(dense int) (hydraulic.AssetType, error) {
	code, err := v.nodeTypes.GetByID(dense)
	if err != nil {
		return "", err
	}
	t, ok := NodeType(code)
	if !ok {
		return "", fmt.Errorf("%w: node type code %d", hydraulic.ErrInvalidAssetType, code)
	}
	return t, nil
}

func (v *View) LinkType(dense int) (hydraulic.AssetType, error) {
	code, err := v.linkTypes.GetByID(dense)
	if err != nil {
		return "", err
	}
	t, ok := LinkType(code)
	if !ok {
		return "", fmt.Errorf("%w: link type code %d", hydraulic.ErrInvalidAssetType, code)
	}
	return t, nil
}

// NodeLinks returns the dense indices of links incident to a node
func (v *View) NodeLinks(dense int) ([]uint32, error) { return v.nodeLinks.GetByID(dense) }

// LinkConnections returns the dense endpoint indices. Endpoints missing
// from the node index read as AbsentNode.
func (v *View) LinkConnections(dense int) ([2]uint32, error) {
	return v.linkConnections.GetByID(dense)
}

func (v *View) LinkBounds(dense int) (r2.Box, error) { return v.linkBounds.GetByID(dense) }

func (v *View) LinkVertices(dense int) ([]geometry.Position, error) {
	return v.linkVertices.GetByID(dense)
}

// Lookup resolves an asset id to its kind and dense index
func (v *View) Lookup(id hydraulic.AssetID) (Kind, int, bool) {
	e, err := v.assetIndex.GetByID(int(id))
	if err != nil {
		return 0, 0, false
	}
	return unpackEntry(e)
}

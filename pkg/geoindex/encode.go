package geoindex

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// Record sizes
const (
	PositionSize    = 2 * buffers.DecimalSize
	BoundsSize      = 4 * buffers.DecimalSize
	ConnectionsSize = 2 * buffers.NumberSize
)

// Options selects what carries the encoded bytes
type Options struct {
	Kind pools.CarrierKind
}

// Encoded is the buffer bundle of one model snapshot. Every section is a
// self-describing buffers layout. Sections are owned by pooled carriers
// until Release.
type Encoded struct {
	Kind pools.CarrierKind

	// dense node index -> asset id, type code, position. NodePositions
	// carries the bounds of every node and vertex as a custom header.
	NodeIDs       []byte
	NodeTypes     []byte
	NodePositions []byte
	// dense node index -> dense indices of incident links
	NodeLinks buffers.WithIndex

	// dense link index -> asset id, type code, dense endpoint indices, bounds
	LinkIDs         []byte
	LinkTypes       []byte
	LinkConnections []byte
	LinkBounds      []byte
	// dense link index -> polyline
	LinkVertices buffers.WithIndex

	// asset id -> packed kind and dense index
	AssetIndex []byte

	release []func()
}

// Release hands every carrier back to its pool. The section slices must
// not be used afterwards.
func (e *Encoded) Release() {
	for _, r := range e.release {
		r()
	}
	e.release = nil
}

// Size is the total number of bytes across sections
func (e *Encoded) Size() int {
	n := 0
	for _, s := range e.sections() {
		n += len(s)
	}
	return n
}

func (e *Encoded) sections() [][]byte {
	return [][]byte{
		e.NodeIDs, e.NodeTypes, e.NodePositions, e.NodeLinks.Data, e.NodeLinks.Index,
		e.LinkIDs, e.LinkTypes, e.LinkConnections, e.LinkBounds, e.LinkVertices.Data, e.LinkVertices.Index,
		e.AssetIndex,
	}
}

func encodeID(id hydraulic.AssetID, c pools.Carrier) error { return buffers.WriteNumber(c, id) }

func encodeTypeCode(code uint8, c pools.Carrier) error { return buffers.WriteType(c, code) }

func encodePosition(p geometry.Position, c pools.Carrier) error {
	if err := buffers.WriteDecimal(c, p[0]); err != nil {
		return err
	}
	return buffers.WriteDecimal(c, p[1])
}

func encodeBounds(b r2.Box, c pools.Carrier) error {
	for _, v := range [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y} {
		if err := buffers.WriteDecimal(c, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeConnections(conn [2]uint32, c pools.Carrier) error {
	if err := buffers.WriteNumber(c, conn[0]); err != nil {
		return err
	}
	return buffers.WriteNumber(c, conn[1])
}

func lineSize(line []geometry.Position) int {
	return buffers.NumberSize + len(line)*PositionSize
}

func encodeLine(line []geometry.Position, c pools.Carrier) error {
	if err := buffers.WriteNumber(c, uint32(len(line))); err != nil {
		return err
	}
	for _, p := range line {
		if err := encodePosition(p, c); err != nil {
			return err
		}
	}
	return nil
}

type encoder struct {
	out  *Encoded
	kind pools.CarrierKind
}

// fixedSection builds one fixed-size section end to end
func fixedSection[T any](e *encoder, recordSize int, records []T, encode buffers.Encoder[T], opts buffers.FixedSizeOptions) ([]byte, error) {
	opts.Kind = e.kind
	b, err := buffers.NewFixedSizeBuilder(recordSize, len(records), encode, opts)
	if err != nil {
		return nil, err
	}
	e.out.release = append(e.out.release, b.Release)
	for _, r := range records {
		if err := b.Add(r); err != nil {
			return nil, err
		}
	}
	return b.Finalize()
}

func variableSection[T any](e *encoder, records []T, encode buffers.Encoder[T], size func(T) int) (buffers.WithIndex, error) {
	total := 0
	for _, r := range records {
		total += size(r)
	}
	b, err := buffers.NewVariableSizeBuilder(len(records), total, encode, size, e.kind)
	if err != nil {
		return buffers.WithIndex{}, err
	}
	e.out.release = append(e.out.release, b.Release)
	for _, r := range records {
		if err := b.Add(r); err != nil {
			return buffers.WithIndex{}, err
		}
	}
	return b.Finalize()
}

// Encode writes the model's nodes, links, adjacency and asset index into
// pre-sized buffers. The first pass assigns dense indices and sizes every
// section; the second writes the records.
func Encode(m *hydraulic.HydraulicModel, opts Options) (*Encoded, error) {
	kind := opts.Kind
	if kind == "" {
		kind = pools.Growable
	}
	idx := buildDenseIndex(m.Assets)
	e := &encoder{out: &Encoded{Kind: kind}, kind: kind}

	// pass 1: flatten records
	nodeIDs := make([]hydraulic.AssetID, len(idx.nodes))
	nodeTypes := make([]uint8, len(idx.nodes))
	positions := make([]geometry.Position, len(idx.nodes))
	nodeLinks := make([][]uint32, len(idx.nodes))
	bounds := geometry.EmptyBounds()
	for i, n := range idx.nodes {
		code, err := nodeTypeCode(n.Type())
		if err != nil {
			return nil, err
		}
		nodeIDs[i], nodeTypes[i], positions[i] = n.ID(), code, n.Coordinates()
		bounds = geometry.Extend(bounds, n.Coordinates())
		for _, linkID := range m.Topology.GetLinks(n.ID()) {
			if dense, ok := idx.linkDense[linkID]; ok {
				nodeLinks[i] = append(nodeLinks[i], uint32(dense))
			}
		}
	}

	linkIDs := make([]hydraulic.AssetID, len(idx.links))
	linkTypes := make([]uint8, len(idx.links))
	connections := make([][2]uint32, len(idx.links))
	linkBounds := make([]r2.Box, len(idx.links))
	vertices := make([][]geometry.Position, len(idx.links))
	for i, l := range idx.links {
		code, err := linkTypeCode(l.Type())
		if err != nil {
			return nil, err
		}
		linkIDs[i], linkTypes[i], vertices[i] = l.ID(), code, l.Coordinates()
		linkBounds[i] = geometry.BoundsOf(l.Coordinates())
		bounds = geometry.Extend(geometry.Extend(bounds, geometry.FromVec(linkBounds[i].Min)), geometry.FromVec(linkBounds[i].Max))
		c := l.Connections()
		// dangling endpoints encode as the absent marker
		connections[i] = [2]uint32{denseOrAbsent(idx.nodeDense, c[0]), denseOrAbsent(idx.nodeDense, c[1])}
	}

	assetIndex := make([]uint32, int(idx.maxID)+1)
	for id, dense := range idx.nodeDense {
		assetIndex[id] = packEntry(KindNode, dense)
	}
	for id, dense := range idx.linkDense {
		assetIndex[id] = packEntry(KindLink, dense)
	}

	// pass 2: write sections
	var err error
	out := e.out
	fail := func() (*Encoded, error) {
		out.Release()
		return nil, err
	}
	if out.NodeIDs, err = fixedSection(e, buffers.NumberSize, nodeIDs, encodeID, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	if out.NodeTypes, err = fixedSection(e, buffers.TypeSize, nodeTypes, encodeTypeCode, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	header := buffers.FixedSizeOptions{
		HeaderSize:  BoundsSize,
		WriteHeader: func(c pools.Carrier) error { return encodeBounds(bounds, c) },
	}
	if out.NodePositions, err = fixedSection(e, PositionSize, positions, encodePosition, header); err != nil {
		return fail()
	}
	if out.NodeLinks, err = variableSection(e, nodeLinks, buffers.WriteIDs, buffers.IDsSize); err != nil {
		return fail()
	}
	if out.LinkIDs, err = fixedSection(e, buffers.NumberSize, linkIDs, encodeID, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	if out.LinkTypes, err = fixedSection(e, buffers.TypeSize, linkTypes, encodeTypeCode, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	if out.LinkConnections, err = fixedSection(e, ConnectionsSize, connections, encodeConnections, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	if out.LinkBounds, err = fixedSection(e, BoundsSize, linkBounds, encodeBounds, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	if out.LinkVertices, err = variableSection(e, vertices, encodeLine, lineSize); err != nil {
		return fail()
	}
	if out.AssetIndex, err = fixedSection(e, buffers.NumberSize, assetIndex, encodeID, buffers.FixedSizeOptions{}); err != nil {
		return fail()
	}
	return out, nil
}

// AbsentNode marks a link endpoint that is not in the node index
const AbsentNode = ^uint32(0)

func denseOrAbsent(dense map[hydraulic.AssetID]int, id hydraulic.AssetID) uint32 {
	if d, ok := dense[id]; ok {
		return uint32(d)
	}
	return AbsentNode
}

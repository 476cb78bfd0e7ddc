package geoindex

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// checkEvery is how many records the kernel scans between context checks
const checkEvery = 4096

// Match holds the dense indices selected by a containment query, each in
// ascending dense order.
type Match struct {
	Nodes []uint32
	Links []uint32
}

func (m Match) Len() int { return len(m.Nodes) + len(m.Links) }

// Release hands the index slices back to the pool. The match must not be
// used afterwards.
func (m Match) Release() {
	pools.PutIndices(m.Nodes)
	pools.PutIndices(m.Links)
}

// Contains selects the nodes whose position lies inside polygon and the
// links with at least one vertex inside it. A link that only crosses the
// polygon without a vertex inside is not selected.
//
// Records outside the polygon's bounding box are rejected before any
// polygon test, and an axis-aligned rectangle is tested by its box alone.
func Contains(ctx context.Context, v *View, polygon []geometry.Position) (Match, error) {
	var m Match
	if len(polygon) < 3 {
		return m, nil
	}
	box := geometry.BoundsOf(polygon)
	if !geometry.BoxesIntersect(box, v.Bounds()) {
		return m, nil
	}
	m.Nodes = pools.GetIndices(0)
	m.Links = pools.GetIndices(0)
	rect, isRect := geometry.AxisAlignedRectangle(polygon)
	inside := func(p geometry.Position) bool {
		if !geometry.BoxContains(box, p) {
			return false
		}
		if isRect {
			return geometry.BoxContains(rect, p)
		}
		return geometry.PointInPolygon(p, polygon)
	}

	for i := 0; i < v.NodeCount(); i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				m.Release()
				return Match{}, err
			}
		}
		p, err := v.NodePosition(i)
		if err != nil {
			m.Release()
			return Match{}, err
		}
		if inside(p) {
			m.Nodes = append(m.Nodes, uint32(i))
		}
	}

	for i := 0; i < v.LinkCount(); i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				m.Release()
				return Match{}, err
			}
		}
		lb, err := v.LinkBounds(i)
		if err != nil {
			m.Release()
			return Match{}, err
		}
		if !geometry.BoxesIntersect(box, lb) {
			continue
		}
		line, err := v.LinkVertices(i)
		if err != nil {
			m.Release()
			return Match{}, err
		}
		for _, p := range line {
			if inside(p) {
				m.Links = append(m.Links, uint32(i))
				break
			}
		}
	}
	return m, nil
}

// AssetIDs translates a match back to stable ids: nodes first, then links.
func (v *View) AssetIDs(m Match) ([]hydraulic.AssetID, error) {
	ids := make([]hydraulic.AssetID, 0, m.Len())
	for _, d := range m.Nodes {
		id, err := v.NodeID(int(d))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	for _, d := range m.Links {
		id, err := v.LinkID(int(d))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EncodeMatch packs a match into one fixed-size buffer: the record count is
// the total, a custom header holds the node count, and records are dense
// indices, nodes first.
func EncodeMatch(m Match, kind pools.CarrierKind) ([]byte, error) {
	b, err := buffers.NewFixedSizeBuilder(buffers.NumberSize, m.Len(),
		func(d uint32, c pools.Carrier) error { return buffers.WriteNumber(c, d) },
		buffers.FixedSizeOptions{
			Kind:        kind,
			HeaderSize:  buffers.NumberSize,
			WriteHeader: func(c pools.Carrier) error { return buffers.WriteNumber(c, uint32(len(m.Nodes))) },
		})
	if err != nil {
		return nil, err
	}
	defer b.Release()
	for _, d := range m.Nodes {
		if err := b.Add(d); err != nil {
			return nil, err
		}
	}
	for _, d := range m.Links {
		if err := b.Add(d); err != nil {
			return nil, err
		}
	}
	out, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(out), nil
}

// DecodeMatch reverses EncodeMatch
func DecodeMatch(data []byte) (Match, error) {
	view, err := buffers.NewFixedSizeView(data, buffers.NumberSize, buffers.Number[uint32], buffers.NumberSize)
	if err != nil {
		return Match{}, err
	}
	nodes := int(buffers.Number[uint32](view.Header(), 0))
	if nodes > view.Count() {
		return Match{}, fmt.Errorf("%w: %d nodes in a match of %d", buffers.ErrCountMismatch, nodes, view.Count())
	}
	m := Match{Nodes: pools.GetIndices(nodes), Links: pools.GetIndices(view.Count() - nodes)}
	for i, d := range view.All() {
		if i < nodes {
			m.Nodes = append(m.Nodes, d)
		} else {
			m.Links = append(m.Links, d)
		}
	}
	return m, nil
}

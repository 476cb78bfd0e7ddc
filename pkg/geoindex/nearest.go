package geoindex

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
)

// nodePoint is a node position tagged with its dense index
type nodePoint struct {
	pos   r2.Vec
	dense int
}

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	default:
		panic("geoindex: illegal dimension")
	}
}

func (p nodePoint) Dims() int { return 2 }

// Distance is the squared planar distance
func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	d := r2.Sub(p.pos, c.(nodePoint).pos)
	return r2.Dot(d, d)
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p nodePoints) Len() int                              { return len(p) }
func (p nodePoints) Pivot(d kdtree.Dim) int                { return nodePlane{dim: d, points: p}.Pivot() }
func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// nodePlane sorts nodePoints along one dimension for pivoting
type nodePlane struct {
	dim    kdtree.Dim
	points nodePoints
}

func (p nodePlane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}
func (p nodePlane) Len() int      { return len(p.points) }
func (p nodePlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p nodePlane) Pivot() int    { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// NodeLocator answers nearest-node questions over a decoded view. Distances
// are planar, in coordinate units.
type NodeLocator struct {
	view *View
	tree *kdtree.Tree
}

func NewNodeLocator(v *View) (*NodeLocator, error) {
	points := make(nodePoints, v.NodeCount())
	for i := range points {
		p, err := v.NodePosition(i)
		if err != nil {
			return nil, err
		}
		points[i] = nodePoint{pos: p.Vec(), dense: i}
	}
	return &NodeLocator{view: v, tree: kdtree.New(points, false)}, nil
}

// NearestNode returns the dense index of the node closest to point, if one
// lies within maxDistance. A non-positive maxDistance means no limit.
func (l *NodeLocator) NearestNode(point geometry.Position, maxDistance float64) (dense int, distance float64, ok bool) {
	if l.view.NodeCount() == 0 {
		return 0, 0, false
	}
	got, sq := l.tree.Nearest(nodePoint{pos: point.Vec()})
	if got == nil {
		return 0, 0, false
	}
	distance = math.Sqrt(sq)
	if maxDistance > 0 && distance > maxDistance {
		return 0, 0, false
	}
	return got.(nodePoint).dense, distance, true
}

// NodesWithin returns the dense indices of every node within radius of
// point, nearest first.
func (l *NodeLocator) NodesWithin(point geometry.Position, radius float64) []int {
	if l.view.NodeCount() == 0 || radius < 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(radius * radius)
	l.tree.NearestSet(keeper, nodePoint{pos: point.Vec()})

	found := make([]kdtree.ComparableDist, 0, keeper.Len())
	for _, c := range keeper.Heap {
		// the keeper seeds its heap with a nil sentinel
		if c.Comparable == nil {
			continue
		}
		found = append(found, c)
	}
	slices.SortFunc(found, func(a, b kdtree.ComparableDist) int {
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		return cmp.Compare(a.Comparable.(nodePoint).dense, b.Comparable.(nodePoint).dense)
	})
	out := make([]int, len(found))
	for i, c := range found {
		out[i] = c.Comparable.(nodePoint).dense
	}
	return out
}

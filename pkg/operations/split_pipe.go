package operations

import (
	"slices"

	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// SplitPipeInput inserts Splits along a pipe. The split nodes may be new
// assets that are not part of the model yet.
type SplitPipeInput struct {
	PipeID hydraulic.AssetID `validate:"required"`
	Splits []hydraulic.Node  `validate:"min=1"`
}

// SplitPipe replaces a pipe with len(Splits)+1 segments. Each split lands on
// the nearest segment of the nearest remaining piece; an intermediate vertex
// at the split position is absorbed. The first segment keeps the pipe label
// and the rest get "<label>_<n>".
func SplitPipe(m *hydraulic.HydraulicModel, in SplitPipeInput) (hydraulic.Diff, error) {
	if err := validateInput(OpSplitPipe, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	pipe := m.Assets.GetPipe(in.PipeID)
	if pipe == nil {
		return hydraulic.Diff{}, hydraulic.InvalidPipeError(OpSplitPipe, in.PipeID)
	}
	for _, n := range in.Splits {
		if n == nil {
			return hydraulic.Diff{}, invalidInput(OpSplitPipe, "nil split node")
		}
	}
	return splitPipe(m, OpSplitPipe, pipe, in.Splits)
}

func splitPipe(m *hydraulic.HydraulicModel, op string, pipe *hydraulic.Pipe, splits []hydraulic.Node) (hydraulic.Diff, error) {
	if len(splits) == 0 {
		return hydraulic.Diff{}, invalidInput(op, "no split nodes for pipe %d", pipe.ID())
	}

	pieces := []*hydraulic.Pipe{pipe}
	for _, split := range splits {
		i := nearestPiece(pieces, split.Coordinates())
		a, b := splitAt(m, pipe, pieces[i], split)
		pieces = slices.Replace(pieces, i, i+1, a, b)
	}

	if err := relabel(m, op, pieces, pipe.Label()); err != nil {
		return hydraulic.Diff{}, err
	}

	put := make([]hydraulic.Asset, len(pieces))
	for i, p := range pieces {
		put[i] = p
	}
	return hydraulic.Diff{
		Note:              "Split pipe",
		PutAssets:         put,
		DeleteAssets:      []hydraulic.AssetID{pipe.ID()},
		PutCustomerPoints: redistribute(m, pipe, pieces, splits),
	}, nil
}

func nearestPiece(pieces []*hydraulic.Pipe, p geometry.Position) int {
	best, bestDist := 0, geometry.DistanceToLine(pieces[0].Coordinates(), p)
	for i := 1; i < len(pieces); i++ {
		if d := geometry.DistanceToLine(pieces[i].Coordinates(), p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// splitAt cuts piece at split. Properties and isActive come from the
// original pipe.
func splitAt(m *hydraulic.HydraulicModel, orig, piece *hydraulic.Pipe, split hydraulic.Node) (*hydraulic.Pipe, *hydraulic.Pipe) {
	coords := piece.Coordinates()
	at := split.Coordinates()

	var first, second []geometry.Position
	if idx := slices.IndexFunc(coords, at.Equal); idx > 0 && idx < len(coords)-1 {
		first = geometry.CopyLine(coords[:idx+1])
		second = geometry.CopyLine(coords[idx:])
	} else {
		seg := geometry.FindNearestPointOnLine(coords, at).Segment
		first = append(geometry.CopyLine(coords[:seg+1]), at)
		second = append([]geometry.Position{at}, coords[seg+1:]...)
	}

	c := piece.Connections()
	build := func(line []geometry.Position, start, end hydraulic.AssetID) *hydraulic.Pipe {
		p := m.Builder.BuildPipe(hydraulic.PipeOptions{
			Label:       orig.Label(),
			Coordinates: line,
			Connections: [2]hydraulic.AssetID{start, end},
			Inactive:    !orig.IsActive(),
		})
		copyProperties(orig, p)
		return p
	}
	return build(first, c[0], split.ID()), build(second, split.ID(), c[1])
}

func relabel(m *hydraulic.HydraulicModel, op string, pieces []*hydraulic.Pipe, base string) error {
	pieces[0].SetLabel(base)
	prev := base
	for _, p := range pieces[1:] {
		label, err := m.LabelManager.GenerateNextLabel(prev)
		if err != nil {
			return hydraulic.NewError(op).Asset(p.ID()).Cause(err).Err()
		}
		p.SetLabel(label)
		prev = label
	}
	return nil
}

// redistribute moves the points of the original pipe onto the segment
// nearest their snap point. The snap point itself is kept.
func redistribute(m *hydraulic.HydraulicModel, orig *hydraulic.Pipe, pieces []*hydraulic.Pipe, splits []hydraulic.Node) []*hydraulic.CustomerPoint {
	points := attachment.PointsOnPipe(m.CustomerPointsLookup, orig.ID())
	if len(points) == 0 {
		return nil
	}
	overlay := make(map[hydraulic.AssetID]hydraulic.Node, len(splits))
	for _, n := range splits {
		overlay[n.ID()] = n
	}
	resolve := func(id hydraulic.AssetID) hydraulic.Node {
		if n, ok := overlay[id]; ok {
			return n
		}
		return m.Assets.GetNode(id)
	}

	out := make([]*hydraulic.CustomerPoint, 0, len(points))
	for _, cp := range points {
		snap := cp.Connection.SnapPoint
		target := pieces[nearestPiece(pieces, snap)]
		c := target.Connections()
		start, end := resolve(c[0]), resolve(c[1])
		if start == nil || end == nil {
			continue
		}
		next := cp.CopyDisconnected()
		if junction := attachment.FindJunctionForCustomerPoint(start, end, snap); junction != hydraulic.NoAssetID {
			next.Connect(hydraulic.Connection{PipeID: target.ID(), SnapPoint: snap, JunctionID: junction})
		}
		out = append(out, next)
	}
	return out
}

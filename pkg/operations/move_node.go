package operations

import (
	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// MoveNodeInput relocates a node. A non-zero PipeIDToSplit also inserts the
// node into that pipe at its new position.
type MoveNodeInput struct {
	NodeID                     hydraulic.AssetID `validate:"required"`
	NewCoordinates             geometry.Position `validate:"finite"`
	NewElevation               float64           `validate:"finite"`
	ShouldUpdateCustomerPoints bool
	PipeIDToSplit              hydraulic.AssetID
}

// MoveNode moves a node and drags the matching endpoint of every incident
// link with it. The diff lists the node first, then its links, then any
// split segments.
func MoveNode(m *hydraulic.HydraulicModel, in MoveNodeInput) (hydraulic.Diff, error) {
	if err := validateInput(OpMoveNode, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	node := m.Assets.GetNode(in.NodeID)
	if node == nil {
		return hydraulic.Diff{}, hydraulic.AssetNotFoundError(OpMoveNode, in.NodeID)
	}

	var pipe *hydraulic.Pipe
	if in.PipeIDToSplit != hydraulic.NoAssetID {
		pipe = m.Assets.GetPipe(in.PipeIDToSplit)
		if pipe == nil {
			return hydraulic.Diff{}, hydraulic.InvalidPipeError(OpMoveNode, in.PipeIDToSplit)
		}
		if c := pipe.Connections(); c[0] == node.ID() || c[1] == node.ID() {
			return hydraulic.Diff{}, invalidInput(OpMoveNode, "pipe %d is connected to node %d", pipe.ID(), node.ID())
		}
	}

	moved, updated, err := moveNode(m, node, in)
	if err != nil {
		return hydraulic.Diff{}, err
	}
	if pipe == nil {
		return moved, nil
	}

	split, err := splitPipe(m, OpMoveNode, pipe, []hydraulic.Node{updated})
	if err != nil {
		return hydraulic.Diff{}, err
	}
	diff := hydraulic.MergeDiffs(moved, split)
	diff.Note = "Move node and split pipe"
	return diff, nil
}

func moveNode(m *hydraulic.HydraulicModel, node hydraulic.Node, in MoveNodeInput) (hydraulic.Diff, hydraulic.Node, error) {
	old := node.Coordinates()
	updated := copyNode(node)
	updated.SetCoordinates(in.NewCoordinates)
	updated.SetElevation(in.NewElevation)

	put := []hydraulic.Asset{updated}
	points := hydraulic.NewCustomerPoints()
	for _, linkID := range m.Topology.GetLinks(node.ID()) {
		link := m.Assets.GetLink(linkID)
		if link == nil {
			continue
		}
		cp := copyLink(link)
		coords := geometry.CopyLine(cp.Coordinates())
		// ends are matched on the old position, so self-loops and links
		// collapsed onto the node move at both ends
		if cp.IsStart(old) {
			coords[0] = in.NewCoordinates
		}
		if cp.IsEnd(old) {
			coords[len(coords)-1] = in.NewCoordinates
		}
		if err := cp.SetCoordinates(coords); err != nil {
			return hydraulic.Diff{}, nil, err
		}
		put = append(put, cp)

		if in.ShouldUpdateCustomerPoints && cp.Type() == hydraulic.TypePipe {
			attachment.ReassignOnPipe(cp, updated, m.Assets, m.CustomerPointsLookup, points)
		}
	}

	return hydraulic.Diff{
		Note:              "Move node",
		PutAssets:         put,
		PutCustomerPoints: pointsOrNil(points),
	}, updated, nil
}

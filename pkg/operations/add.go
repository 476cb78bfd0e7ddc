package operations

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// Vertices closer than this to their predecessor are dropped from a drawn link
const redundantVertexMeters = 1.0

// AddNodeInput places a new node, optionally inside an existing pipe
type AddNodeInput struct {
	NodeType      hydraulic.AssetType `validate:"required,nodetype"`
	Coordinates   geometry.Position   `validate:"finite"`
	Elevation     float64             `validate:"finite"`
	PipeIDToSplit hydraulic.AssetID
}

// AddNode builds a node with a generated label. When PipeIDToSplit is set
// the node takes the pipe's isActive and splits it.
func AddNode(m *hydraulic.HydraulicModel, in AddNodeInput) (hydraulic.Diff, error) {
	if err := validateInput(OpAddNode, &in); err != nil {
		return hydraulic.Diff{}, err
	}

	var pipe *hydraulic.Pipe
	if in.PipeIDToSplit != hydraulic.NoAssetID {
		if pipe = m.Assets.GetPipe(in.PipeIDToSplit); pipe == nil {
			return hydraulic.Diff{}, hydraulic.InvalidPipeError(OpAddNode, in.PipeIDToSplit)
		}
	}

	node, err := buildNode(m, OpAddNode, in.NodeType, in.Coordinates, in.Elevation)
	if err != nil {
		return hydraulic.Diff{}, err
	}
	if pipe == nil {
		return hydraulic.Diff{
			Note:      fmt.Sprintf("Add %s", node.Type()),
			PutAssets: []hydraulic.Asset{node},
		}, nil
	}

	node.SetActive(pipe.IsActive())
	split, err := splitPipe(m, OpAddNode, pipe, []hydraulic.Node{node})
	if err != nil {
		return hydraulic.Diff{}, err
	}
	diff := hydraulic.MergeDiffs(hydraulic.Diff{PutAssets: []hydraulic.Asset{node}}, split)
	diff.Note = fmt.Sprintf("Add %s and split pipe", node.Type())
	return diff, nil
}

// AddLinkInput draws a link between two existing nodes
type AddLinkInput struct {
	LinkType    hydraulic.AssetType `validate:"required,linktype"`
	Coordinates []geometry.Position `validate:"min=2,dive,finite"`
	StartNodeID hydraulic.AssetID   `validate:"required"`
	EndNodeID   hydraulic.AssetID   `validate:"required"`
	Inactive    bool
}

// AddLink builds a link with a generated label. Its end vertices are snapped
// to the node positions and vertices within a meter of the previous one are
// dropped. The link is active when either node already has an active link
// or both nodes are unconnected; the nodes' isActive is then re-derived.
func AddLink(m *hydraulic.HydraulicModel, in AddLinkInput) (hydraulic.Diff, error) {
	if err := validateInput(OpAddLink, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	start := m.Assets.GetNode(in.StartNodeID)
	if start == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpAddLink).Asset(in.StartNodeID).
			Cause(fmt.Errorf("%w: start node not found", hydraulic.ErrAssetNotFound)).Err()
	}
	end := m.Assets.GetNode(in.EndNodeID)
	if end == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpAddLink).Asset(in.EndNodeID).
			Cause(fmt.Errorf("%w: end node not found", hydraulic.ErrAssetNotFound)).Err()
	}
	if start.ID() == end.ID() {
		return hydraulic.Diff{}, invalidInput(OpAddLink, "link would start and end at node %d", start.ID())
	}

	coords := geometry.CopyLine(in.Coordinates)
	coords[0] = start.Coordinates()
	coords[len(coords)-1] = end.Coordinates()
	coords = removeRedundantVertices(coords)

	link, err := m.Builder.BuildLink(in.LinkType, "", coords, [2]hydraulic.AssetID{start.ID(), end.ID()})
	if err != nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpAddLink).Cause(err).Err()
	}

	orphans := !m.Topology.HasNode(start.ID()) && !m.Topology.HasNode(end.ID())
	link.SetActive(!in.Inactive &&
		(orphans || hasActiveLinkOutside(m, start.ID(), nil) || hasActiveLinkOutside(m, end.ID(), nil)))

	additional := []hydraulic.Link{link}
	startCopy, endCopy := copyNode(start), copyNode(end)
	startCopy.SetActive(inferNodeIsActive(m, start.ID(), nil, additional))
	endCopy.SetActive(inferNodeIsActive(m, end.ID(), nil, additional))

	diff := hydraulic.Diff{
		Note:      fmt.Sprintf("Add %s", link.Type()),
		PutAssets: []hydraulic.Asset{link, startCopy, endCopy},
	}
	if link.Type() == hydraulic.TypePump {
		diff.PutCurves = []hydraulic.Curve{defaultPumpCurve(link.ID())}
	}
	return diff, nil
}

// removeRedundantVertices drops intermediate vertices within a meter of the
// last kept one. A last kept vertex that close to the end is replaced by it.
func removeRedundantVertices(coords []geometry.Position) []geometry.Position {
	if len(coords) <= 2 {
		return coords
	}
	out := []geometry.Position{coords[0]}
	for _, p := range coords[1 : len(coords)-1] {
		if geometry.HaversineDistance(out[len(out)-1], p) < redundantVertexMeters {
			continue
		}
		out = append(out, p)
	}
	last := coords[len(coords)-1]
	if len(out) > 1 && geometry.HaversineDistance(out[len(out)-1], last) < redundantVertexMeters {
		out[len(out)-1] = last
		return out
	}
	return append(out, last)
}

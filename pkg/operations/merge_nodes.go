package operations

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// MergeNodesInput folds SourceNodeID into TargetNodeID's position
type MergeNodesInput struct {
	SourceNodeID hydraulic.AssetID `validate:"required"`
	TargetNodeID hydraulic.AssetID `validate:"required"`
}

// MergeNodes folds the source node into the target when the two do not
// share a link. Every link of the source is rewired to the target and has
// its endpoint moved onto the target position; the source is deleted. Two
// junctions sum their base demand.
func MergeNodes(m *hydraulic.HydraulicModel, in MergeNodesInput) (hydraulic.Diff, error) {
	if err := validateInput(OpMergeNodes, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	source := m.Assets.GetNode(in.SourceNodeID)
	if source == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpMergeNodes).Asset(in.SourceNodeID).
			Cause(fmt.Errorf("%w: invalid source node ID", hydraulic.ErrAssetNotFound)).Err()
	}
	target := m.Assets.GetNode(in.TargetNodeID)
	if target == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpMergeNodes).Asset(in.TargetNodeID).
			Cause(fmt.Errorf("%w: invalid target node ID", hydraulic.ErrAssetNotFound)).Err()
	}
	if source.ID() == target.ID() {
		return hydraulic.Diff{}, invalidInput(OpMergeNodes, "cannot merge node %d into itself", source.ID())
	}
	if m.Topology.NodesShareLink(source.ID(), target.ID()) {
		return hydraulic.Diff{}, hydraulic.NewError(OpMergeNodes).Asset(source.ID()).
			Context(fmt.Sprintf("target %d", target.ID())).Cause(hydraulic.ErrNodesShareLink).Err()
	}

	merged := copyNode(target)
	if t, ok := merged.(*hydraulic.Junction); ok {
		if s, ok := source.(*hydraulic.Junction); ok {
			t.SetBaseDemand(t.BaseDemand() + s.BaseDemand())
		}
	}

	at := target.Coordinates()
	var links []hydraulic.Link
	for _, id := range m.Topology.GetLinks(source.ID()) {
		if l := m.Assets.GetLink(id); l != nil {
			cp, err := rewire(l, source.ID(), target.ID(), at)
			if err != nil {
				return hydraulic.Diff{}, err
			}
			links = append(links, cp)
		}
	}

	// the target stays active when it keeps an active link of its own; an
	// unconnected pair keeps the target's flag
	active := len(links) == 0 && len(m.Topology.GetLinks(target.ID())) == 0 && target.IsActive()
	for _, id := range m.Topology.GetLinks(target.ID()) {
		if l := m.Assets.GetLink(id); l != nil && l.IsActive() {
			active = true
		}
	}
	put := []hydraulic.Asset{merged}
	for _, l := range links {
		active = active || l.IsActive()
		put = append(put, l)
	}
	merged.SetActive(active)

	points := hydraulic.NewCustomerPoints()
	for _, l := range links {
		if l.Type() == hydraulic.TypePipe {
			attachment.ReassignOnPipe(l, merged, m.Assets, m.CustomerPointsLookup, points)
		}
	}

	return hydraulic.Diff{
		Note:              fmt.Sprintf("Merge %s into %s", source.Type(), target.Type()),
		PutAssets:         put,
		DeleteAssets:      []hydraulic.AssetID{source.ID()},
		PutCustomerPoints: pointsOrNil(points),
	}, nil
}

// rewire copies l, replaces from with to in its connections and moves the
// matching endpoints to at
func rewire(l hydraulic.Link, from, to hydraulic.AssetID, at geometry.Position) (hydraulic.Link, error) {
	cp := copyLink(l)
	c := cp.Connections()
	coords := geometry.CopyLine(cp.Coordinates())
	if c[0] == from {
		c[0] = to
		coords[0] = at
	}
	if c[1] == from {
		c[1] = to
		coords[len(coords)-1] = at
	}
	cp.SetConnections(c[0], c[1])
	if err := cp.SetCoordinates(coords); err != nil {
		return nil, err
	}
	return cp, nil
}

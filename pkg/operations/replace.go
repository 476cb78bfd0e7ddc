package operations

import (
	"fmt"
	"strconv"

	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// ReplaceNodeInput swaps a node for a node of another type
type ReplaceNodeInput struct {
	OldNodeID   hydraulic.AssetID   `validate:"required"`
	NewNodeType hydraulic.AssetType `validate:"required,nodetype"`
}

// ReplaceNode builds a NewNodeType node with a fresh id and label at the old
// node's position, elevation and isActive, copies the properties both types
// declare and rewires every incident link to it.
func ReplaceNode(m *hydraulic.HydraulicModel, in ReplaceNodeInput) (hydraulic.Diff, error) {
	if err := validateInput(OpReplaceNode, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	old := m.Assets.GetNode(in.OldNodeID)
	if old == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpReplaceNode).Asset(in.OldNodeID).
			Cause(fmt.Errorf("%w: invalid node ID", hydraulic.ErrAssetNotFound)).Err()
	}

	node, err := buildNode(m, OpReplaceNode, in.NewNodeType, old.Coordinates(), old.Elevation())
	if err != nil {
		return hydraulic.Diff{}, err
	}
	copyProperties(old, node)
	node.SetActive(old.IsActive())

	put := []hydraulic.Asset{node}
	points := hydraulic.NewCustomerPoints()
	for _, id := range m.Topology.GetLinks(old.ID()) {
		l := m.Assets.GetLink(id)
		if l == nil {
			continue
		}
		cp, err := rewire(l, old.ID(), node.ID(), old.Coordinates())
		if err != nil {
			return hydraulic.Diff{}, err
		}
		put = append(put, cp)
		if cp.Type() == hydraulic.TypePipe {
			attachment.ReassignOnPipe(cp, node, m.Assets, m.CustomerPointsLookup, points)
		}
	}

	return hydraulic.Diff{
		Note:              fmt.Sprintf("Replace %s with %s", old.Type(), node.Type()),
		PutAssets:         put,
		DeleteAssets:      []hydraulic.AssetID{old.ID()},
		PutCustomerPoints: pointsOrNil(points),
	}, nil
}

// ReplaceLinkInput swaps a link for a link of another type
type ReplaceLinkInput struct {
	LinkID      hydraulic.AssetID   `validate:"required"`
	NewLinkType hydraulic.AssetType `validate:"required,linktype"`
}

// ReplaceLink builds a NewLinkType link with a fresh id and label on the old
// link's polyline, connections and isActive. Customer points on a replaced
// pipe follow the new link when it is a pipe and are disconnected otherwise.
func ReplaceLink(m *hydraulic.HydraulicModel, in ReplaceLinkInput) (hydraulic.Diff, error) {
	if err := validateInput(OpReplaceLink, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	old := m.Assets.GetLink(in.LinkID)
	if old == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpReplaceLink).Asset(in.LinkID).
			Cause(fmt.Errorf("%w: invalid link ID", hydraulic.ErrAssetNotFound)).Err()
	}

	link, err := m.Builder.BuildLink(in.NewLinkType, "", old.Coordinates(), old.Connections())
	if err != nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpReplaceLink).Asset(old.ID()).Cause(err).Err()
	}
	copyProperties(old, link)
	link.SetActive(old.IsActive())

	diff := hydraulic.Diff{
		Note:         fmt.Sprintf("Replace %s", old.Type()),
		PutAssets:    []hydraulic.Asset{link},
		DeleteAssets: []hydraulic.AssetID{old.ID()},
	}
	if link.Type() == hydraulic.TypePump {
		diff.PutCurves = []hydraulic.Curve{defaultPumpCurve(link.ID())}
	}
	if old.Type() == hydraulic.TypePipe {
		points := attachment.PointsOnPipe(m.CustomerPointsLookup, old.ID())
		if link.Type() == hydraulic.TypePipe {
			start, end := m.Assets.LinkNodes(link)
			diff.PutCustomerPoints = attachment.Reconnect(points, link, start, end)
		} else if len(points) > 0 {
			diff.PutCustomerPoints = attachment.Disconnect(points)
		}
	}
	return diff, nil
}

// defaultPumpCurve is the single design point given to a new pump
func defaultPumpCurve(id hydraulic.AssetID) hydraulic.Curve {
	return hydraulic.Curve{
		ID:     strconv.FormatUint(uint64(id), 10),
		Type:   hydraulic.CurvePump,
		Points: []hydraulic.CurvePoint{{X: 1, Y: 1}},
	}
}

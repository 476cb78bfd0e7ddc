package operations

import (
	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// DeleteAssetsInput removes assets. Deleting a node also deletes its links.
type DeleteAssetsInput struct {
	AssetIDs                   []hydraulic.AssetID `validate:"min=1"`
	ShouldUpdateCustomerPoints bool
}

// DeleteAssets deletes the given assets and every link of a deleted node.
// Surviving endpoint nodes of deleted links get their isActive re-derived
// and are put only when it changes.
func DeleteAssets(m *hydraulic.HydraulicModel, in DeleteAssetsInput) (hydraulic.Diff, error) {
	if err := validateInput(OpDeleteAssets, &in); err != nil {
		return hydraulic.Diff{}, err
	}

	deleted := make(map[hydraulic.AssetID]bool)
	var order []hydraulic.AssetID
	mark := func(id hydraulic.AssetID) {
		if !deleted[id] {
			deleted[id] = true
			order = append(order, id)
		}
	}
	for _, id := range in.AssetIDs {
		if !m.Assets.Has(id) {
			return hydraulic.Diff{}, hydraulic.AssetNotFoundError(OpDeleteAssets, id)
		}
		mark(id)
		for _, linkID := range m.Topology.GetLinks(id) {
			mark(linkID)
		}
	}

	var put []hydraulic.Asset
	points := hydraulic.NewCustomerPoints()
	inspected := make(map[hydraulic.AssetID]bool)
	for _, id := range order {
		link := m.Assets.GetLink(id)
		if link == nil {
			continue
		}
		if in.ShouldUpdateCustomerPoints && link.Type() == hydraulic.TypePipe {
			for _, cp := range attachment.PointsOnPipe(m.CustomerPointsLookup, id) {
				if _, ok := points.Get(cp.ID); !ok {
					points.Set(cp.CopyDisconnected())
				}
			}
		}
		start, end := m.Assets.LinkNodes(link)
		for _, n := range []hydraulic.Node{start, end} {
			if n == nil || deleted[n.ID()] || inspected[n.ID()] {
				continue
			}
			inspected[n.ID()] = true
			if active := inferNodeIsActive(m, n.ID(), deleted, nil); active != n.IsActive() {
				cp := copyNode(n)
				cp.SetActive(active)
				put = append(put, cp)
			}
		}
	}

	return hydraulic.Diff{
		Note:              "Delete assets",
		PutAssets:         put,
		DeleteAssets:      order,
		PutCustomerPoints: pointsOrNil(points),
	}, nil
}

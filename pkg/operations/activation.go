package operations

import (
	"slices"

	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// AssetIDsInput names a batch of assets
type AssetIDsInput struct {
	AssetIDs []hydraulic.AssetID
}

// ActivateAssets turns on every inactive link in AssetIDs together with its
// inactive endpoint nodes. Node ids are ignored.
func ActivateAssets(m *hydraulic.HydraulicModel, in AssetIDsInput) (hydraulic.Diff, error) {
	links, err := resolveLinks(m, OpActivate, in.AssetIDs)
	if err != nil {
		return hydraulic.Diff{}, err
	}

	put := []hydraulic.Asset{}
	seen := make(map[hydraulic.AssetID]bool)
	add := func(a hydraulic.Asset) {
		if seen[a.ID()] || a.IsActive() {
			return
		}
		seen[a.ID()] = true
		cp := a.Copy()
		cp.SetActive(true)
		put = append(put, cp)
	}
	for _, l := range links {
		add(l)
		start, end := m.Assets.LinkNodes(l)
		for _, n := range []hydraulic.Node{start, end} {
			if n != nil {
				add(n)
			}
		}
	}
	return hydraulic.Diff{Note: "Activate assets", PutAssets: put}, nil
}

// DeactivateAssets turns off every active link in AssetIDs. An endpoint node
// is turned off too once none of its remaining active links lies outside
// the batch.
func DeactivateAssets(m *hydraulic.HydraulicModel, in AssetIDsInput) (hydraulic.Diff, error) {
	links, err := resolveLinks(m, OpDeactivate, in.AssetIDs)
	if err != nil {
		return hydraulic.Diff{}, err
	}

	deactivated := make(map[hydraulic.AssetID]bool, len(links))
	put := []hydraulic.Asset{}
	for _, l := range links {
		if !l.IsActive() || deactivated[l.ID()] {
			continue
		}
		deactivated[l.ID()] = true
		cp := copyLink(l)
		cp.SetActive(false)
		put = append(put, cp)
	}

	handled := make(map[hydraulic.AssetID]bool)
	for _, l := range links {
		start, end := m.Assets.LinkNodes(l)
		for _, n := range []hydraulic.Node{start, end} {
			if n == nil || !n.IsActive() || handled[n.ID()] {
				continue
			}
			handled[n.ID()] = true
			if hasActiveLinkOutside(m, n.ID(), deactivated) {
				continue
			}
			cp := copyNode(n)
			cp.SetActive(false)
			put = append(put, cp)
		}
	}
	return hydraulic.Diff{Note: "Deactivate assets", PutAssets: put}, nil
}

// resolveLinks returns the links among ids in order. Unknown ids fail.
func resolveLinks(m *hydraulic.HydraulicModel, op string, ids []hydraulic.AssetID) ([]hydraulic.Link, error) {
	links := make([]hydraulic.Link, 0, len(ids))
	for _, id := range ids {
		a, ok := m.Assets.Get(id)
		if !ok {
			return nil, hydraulic.AssetNotFoundError(op, id)
		}
		if l, ok := a.(hydraulic.Link); ok {
			links = append(links, l)
		}
	}
	return links, nil
}

func hasActiveLinkOutside(m *hydraulic.HydraulicModel, node hydraulic.AssetID, excluded map[hydraulic.AssetID]bool) bool {
	for _, id := range m.Topology.GetLinks(node) {
		if excluded[id] {
			continue
		}
		if l := m.Assets.GetLink(id); l != nil && l.IsActive() {
			return true
		}
	}
	return false
}

// inferNodeIsActive derives a node's isActive from the links it would have
// after an edit: its current links minus excluded, plus any of additional
// that touch it. A node left without links is active.
func inferNodeIsActive(m *hydraulic.HydraulicModel, node hydraulic.AssetID, excluded map[hydraulic.AssetID]bool, additional []hydraulic.Link) bool {
	remaining := 0
	for _, id := range m.Topology.GetLinks(node) {
		if excluded[id] {
			continue
		}
		l := m.Assets.GetLink(id)
		if l == nil {
			continue
		}
		remaining++
		if l.IsActive() {
			return true
		}
	}
	for _, l := range additional {
		c := l.Connections()
		if !slices.Contains(c[:], node) {
			continue
		}
		remaining++
		if l.IsActive() {
			return true
		}
	}
	return remaining == 0
}

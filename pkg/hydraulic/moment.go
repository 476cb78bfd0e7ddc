package hydraulic

// Diff is the output of a model operation. It never aliases the snapshot
// it was computed from and must be applied in order: puts in PutAssets
// order, then deletions.
type Diff struct {
	Note              string
	PutAssets         []Asset
	DeleteAssets      []AssetID
	PutCustomerPoints []*CustomerPoint
	PutCurves         []Curve
}

// IsEmpty reports whether the diff would leave a snapshot unchanged
func (d Diff) IsEmpty() bool {
	return len(d.PutAssets) == 0 && len(d.DeleteAssets) == 0 &&
		len(d.PutCustomerPoints) == 0 && len(d.PutCurves) == 0
}

// MergeDiffs concatenates diffs, keeping the first note
func MergeDiffs(diffs ...Diff) Diff {
	if len(diffs) == 0 {
		return Diff{}
	}
	out := Diff{Note: diffs[0].Note}
	for _, d := range diffs {
		out.PutAssets = append(out.PutAssets, d.PutAssets...)
		out.DeleteAssets = append(out.DeleteAssets, d.DeleteAssets...)
		out.PutCustomerPoints = append(out.PutCustomerPoints, d.PutCustomerPoints...)
		out.PutCurves = append(out.PutCurves, d.PutCurves...)
	}
	return out
}

// ApplyDiff returns the snapshot that results from d. m is left untouched;
// the shared label registry follows the new snapshot.
func ApplyDiff(m *HydraulicModel, d Diff) *HydraulicModel {
	next := m.clone()
	assets := m.Assets.Copy()
	topo := m.Topology.Copy()

	for _, a := range d.PutAssets {
		if prev, ok := m.Assets.Get(a.ID()); ok && prev.Label() != a.Label() {
			m.LabelManager.Remove(prev.Label(), prev.Type(), prev.ID())
		}
		m.LabelManager.Register(a.Label(), a.Type(), a.ID())
		m.IDs.Advance(a.ID())
		assets.Set(a)
	}
	nodeExists := func(id uint32) bool { return assets.GetNode(id) != nil }
	for _, a := range d.PutAssets {
		if l, ok := a.(Link); ok {
			c := l.Connections()
			topo.RemoveLink(l.ID())
			topo.AddLinkWhere(l.ID(), c[0], c[1], nodeExists)
		}
	}
	for _, id := range d.DeleteAssets {
		prev, ok := assets.Get(id)
		if !ok {
			continue
		}
		m.LabelManager.Remove(prev.Label(), prev.Type(), prev.ID())
		assets.Delete(id)
		if prev.IsLink() {
			topo.RemoveLink(id)
		} else {
			topo.RemoveNode(id)
		}
	}
	next.Assets = assets
	next.Topology = topo

	if len(d.PutCustomerPoints) > 0 {
		points := m.CustomerPoints.Copy()
		lookup := m.CustomerPointsLookup.Copy()
		for _, cp := range d.PutCustomerPoints {
			if prev, ok := points.Get(cp.ID); ok {
				lookup.RemoveConnection(prev)
			}
			points.Set(cp)
			lookup.AddConnection(cp)
		}
		next.CustomerPoints = points
		next.CustomerPointsLookup = lookup
	}

	if len(d.PutCurves) > 0 {
		curves := m.Curves.Copy()
		for _, c := range d.PutCurves {
			curves[c.ID] = c.Copy()
		}
		next.Curves = curves
	}
	return next
}

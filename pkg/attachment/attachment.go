// Package attachment keeps customer points attached to the right pipe and
// junction as the network geometry changes.
//
// A point is never edited in place. Every reattachment starts from
// CopyDisconnected and reconnects the copy when a junction can be found.
package attachment

import (
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// FindJunctionForCustomerPoint picks the endpoint junction a point snapped
// at snap should draw its demand from. Only junctions are eligible; when
// both endpoints are junctions the nearer one wins and the start node wins
// ties. NoAssetID means neither endpoint qualifies.
func FindJunctionForCustomerPoint(start, end hydraulic.Node, snap geometry.Position) hydraulic.AssetID {
	startOK := isJunction(start)
	endOK := isJunction(end)
	switch {
	case startOK && endOK:
		if geometry.Distance(start.Coordinates(), snap) <= geometry.Distance(end.Coordinates(), snap) {
			return start.ID()
		}
		return end.ID()
	case startOK:
		return start.ID()
	case endOK:
		return end.ID()
	default:
		return hydraulic.NoAssetID
	}
}

func isJunction(n hydraulic.Node) bool {
	return n != nil && n.Type() == hydraulic.TypeJunction
}

// SnapPoint projects the point's own coordinates onto the pipe polyline
func SnapPoint(pipe hydraulic.Link, cp *hydraulic.CustomerPoint) geometry.Position {
	return geometry.FindNearestPointOnLine(pipe.Coordinates(), cp.Coordinates).Point
}

// Attach returns a copy of cp connected to pipe at its re-projected snap
// point and the nearer endpoint junction. The copy is disconnected when no
// junction qualifies; ok reports which.
func Attach(cp *hydraulic.CustomerPoint, pipe hydraulic.Link, start, end hydraulic.Node) (out *hydraulic.CustomerPoint, ok bool) {
	out = cp.CopyDisconnected()
	snap := SnapPoint(pipe, cp)
	junction := FindJunctionForCustomerPoint(start, end, snap)
	if junction == hydraulic.NoAssetID {
		return out, false
	}
	out.Connect(hydraulic.Connection{PipeID: pipe.ID(), SnapPoint: snap, JunctionID: junction})
	return out, true
}

// ReassignOnPipe re-attaches every point connected to pipe in the snapshot
// lookup. pipe is the updated copy and updated replaces whichever endpoint it
// matches by id; the other endpoint is resolved from assets. Results are
// collected in into, and points already present there are left alone so a
// point touched through two links is processed once.
func ReassignOnPipe(pipe hydraulic.Link, updated hydraulic.Node, assets *hydraulic.AssetsMap,
	lookup *hydraulic.CustomerPointsLookup, into *hydraulic.CustomerPoints) {
	points := PointsOnPipe(lookup, pipe.ID())
	if len(points) == 0 {
		return
	}
	start, end := endpoints(pipe, updated, assets)
	for _, cp := range points {
		if _, seen := into.Get(cp.ID); seen {
			continue
		}
		next, _ := Attach(cp, pipe, start, end)
		into.Set(next)
	}
}

func endpoints(pipe hydraulic.Link, updated hydraulic.Node, assets *hydraulic.AssetsMap) (start, end hydraulic.Node) {
	c := pipe.Connections()
	start, end = assets.GetNode(c[0]), assets.GetNode(c[1])
	if updated != nil {
		if c[0] == updated.ID() {
			start = updated
		}
		if c[1] == updated.ID() {
			end = updated
		}
	}
	return start, end
}

// Reconnect re-attaches points onto a replacement pipe whose endpoints are
// given explicitly. Points without a connection are skipped.
func Reconnect(points []*hydraulic.CustomerPoint, pipe hydraulic.Link, start, end hydraulic.Node) []*hydraulic.CustomerPoint {
	out := make([]*hydraulic.CustomerPoint, 0, len(points))
	for _, cp := range points {
		if !cp.IsConnected() {
			continue
		}
		next, _ := Attach(cp, pipe, start, end)
		out = append(out, next)
	}
	return out
}

// Disconnect returns disconnected copies of points
func Disconnect(points []*hydraulic.CustomerPoint) []*hydraulic.CustomerPoint {
	out := make([]*hydraulic.CustomerPoint, len(points))
	for i, cp := range points {
		out[i] = cp.CopyDisconnected()
	}
	return out
}

// PointsOnPipe returns the points whose connection names pipe
func PointsOnPipe(lookup *hydraulic.CustomerPointsLookup, pipe hydraulic.AssetID) []*hydraulic.CustomerPoint {
	var out []*hydraulic.CustomerPoint
	for _, cp := range lookup.GetCustomerPoints(pipe) {
		if cp.Connection != nil && cp.Connection.PipeID == pipe {
			out = append(out, cp)
		}
	}
	return out
}

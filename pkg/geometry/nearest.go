package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// NearestPoint is the projection of a point onto a polyline
type NearestPoint struct {
	Point    Position
	Distance float64
	// Segment is the index of the segment [Segment, Segment+1] holding Point
	Segment int
}

// ProjectOnSegment returns the point of segment ab closest to p and the
// segment parameter t in [0, 1].
func ProjectOnSegment(a, b, p Position) (Position, float64) {
	av, bv, pv := a.Vec(), b.Vec(), p.Vec()
	ab := r2.Sub(bv, av)
	den := r2.Dot(ab, ab)
	if den == 0 {
		return a, 0
	}
	t := r2.Dot(r2.Sub(pv, av), ab) / den
	t = math.Max(0, math.Min(1, t))
	return FromVec(r2.Add(av, r2.Scale(t, ab))), t
}

// FindNearestPointOnLine projects point onto every segment of line and keeps
// the closest projection. The first segment wins ties. A single-point line
// yields that point.
func FindNearestPointOnLine(line []Position, point Position) NearestPoint {
	if len(line) == 0 {
		return NearestPoint{Point: point, Distance: math.Inf(1), Segment: -1}
	}
	if len(line) == 1 {
		return NearestPoint{Point: line[0], Distance: Distance(line[0], point)}
	}

	best := NearestPoint{Distance: math.Inf(1)}
	for i := 0; i < len(line)-1; i++ {
		proj, _ := ProjectOnSegment(line[i], line[i+1], point)
		if d := Distance(proj, point); d < best.Distance {
			best = NearestPoint{Point: proj, Distance: d, Segment: i}
		}
	}
	return best
}

// DistanceToLine is the planar distance from point to the polyline
func DistanceToLine(line []Position, point Position) float64 {
	return FindNearestPointOnLine(line, point).Distance
}

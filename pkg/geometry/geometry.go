// Package geometry provides the planar and geodesic primitives used by the
// network model: polyline length, nearest point on a line, polygon
// containment and bounding boxes.
//
// Positions are [x, y] pairs, longitude first.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// EarthRadius is the mean earth radius in meters used for geodesic length
const EarthRadius = 6371008.8

// Position is a 2D coordinate
type Position [2]float64

// Vec converts p to a gonum vector
func (p Position) Vec() r2.Vec {
	return r2.Vec{X: p[0], Y: p[1]}
}

// FromVec converts a gonum vector back to a Position
func FromVec(v r2.Vec) Position {
	return Position{v.X, v.Y}
}

// Equal reports exact coordinate equality
func (p Position) Equal(o Position) bool {
	return p[0] == o[0] && p[1] == o[1]
}

// Distance is the planar distance between two positions
func Distance(a, b Position) float64 {
	return r2.Norm(r2.Sub(a.Vec(), b.Vec()))
}

// HaversineDistance returns the great-circle distance in meters
func HaversineDistance(a, b Position) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Pow(math.Sin(dLon/2), 2)*math.Cos(lat1)*math.Cos(lat2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)) * EarthRadius
}

// LengthMeters returns the geodesic length of a polyline in meters
func LengthMeters(line []Position) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += HaversineDistance(line[i-1], line[i])
	}
	return total
}

// CopyLine returns an owned copy of a polyline
func CopyLine(line []Position) []Position {
	if line == nil {
		return nil
	}
	out := make([]Position, len(line))
	copy(out, line)
	return out
}

// ReverseLine returns a reversed copy of line
func ReverseLine(line []Position) []Position {
	out := make([]Position, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

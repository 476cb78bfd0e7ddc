package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// PointInPolygon tests containment using ray casting. The ring may be open
// or closed. Fewer than 3 vertices contain nothing.
func PointInPolygon(p Position, polygon []Position) bool {
	n := len(polygon)
	if n > 1 && polygon[0].Equal(polygon[n-1]) {
		n--
	}
	if n < 3 {
		return false
	}

	inside := false
	x, y := p[0], p[1]
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := polygon[i][0], polygon[i][1]
		xj, yj := polygon[j][0], polygon[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// EmptyBounds returns a box that any point extends
func EmptyBounds() r2.Box {
	return r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// Extend grows b to include p
func Extend(b r2.Box, p Position) r2.Box {
	b.Min.X = math.Min(b.Min.X, p[0])
	b.Min.Y = math.Min(b.Min.Y, p[1])
	b.Max.X = math.Max(b.Max.X, p[0])
	b.Max.Y = math.Max(b.Max.Y, p[1])
	return b
}

// BoundsOf returns the bounding box of the positions
func BoundsOf(points []Position) r2.Box {
	b := EmptyBounds()
	for _, p := range points {
		b = Extend(b, p)
	}
	return b
}

// BoxContains reports whether p lies in b, edges included
func BoxContains(b r2.Box, p Position) bool {
	return p[0] >= b.Min.X && p[0] <= b.Max.X && p[1] >= b.Min.Y && p[1] <= b.Max.Y
}

// BoxesIntersect reports whether the two boxes overlap, edges included
func BoxesIntersect(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X && a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y
}

// AxisAlignedRectangle reports whether polygon is a rectangle with edges
// parallel to the axes and returns its box.
func AxisAlignedRectangle(polygon []Position) (r2.Box, bool) {
	n := len(polygon)
	if n > 1 && polygon[0].Equal(polygon[n-1]) {
		n--
	}
	if n != 4 {
		return r2.Box{}, false
	}
	var horizontal [4]bool
	for i := 0; i < 4; i++ {
		a, b := polygon[i], polygon[(i+1)%4]
		if a.Equal(b) || (a[0] != b[0] && a[1] != b[1]) {
			return r2.Box{}, false
		}
		horizontal[i] = a[1] == b[1]
	}
	for i := 0; i < 4; i++ {
		if horizontal[i] == horizontal[(i+1)%4] {
			return r2.Box{}, false
		}
	}
	box := BoundsOf(polygon[:n])
	if box.Min.X == box.Max.X || box.Min.Y == box.Max.Y {
		return r2.Box{}, false
	}
	return box, true
}

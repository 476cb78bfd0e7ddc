package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestHaversineDistance(t *testing.T) {
	oneDegree := 2 * math.Pi * EarthRadius / 360

	tests := []struct {
		name string
		a, b Position
		want float64
	}{
		{"same point", Position{3, 4}, Position{3, 4}, 0},
		{"one degree along equator", Position{0, 0}, Position{1, 0}, oneDegree},
		{"one degree along meridian", Position{10, 0}, Position{10, 1}, oneDegree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HaversineDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("HaversineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLengthMeters(t *testing.T) {
	line := []Position{{0, 0}, {1, 0}, {1, 1}}
	want := HaversineDistance(line[0], line[1]) + HaversineDistance(line[1], line[2])
	if got := LengthMeters(line); got != want {
		t.Errorf("LengthMeters() = %v, want %v", got, want)
	}
	if got := LengthMeters(line[:1]); got != 0 {
		t.Errorf("LengthMeters(single) = %v, want 0", got)
	}
}

func TestFindNearestPointOnLine(t *testing.T) {
	line := []Position{{0, 0}, {10, 0}, {10, 10}}

	tests := []struct {
		name     string
		point    Position
		want     Position
		distance float64
		segment  int
	}{
		{"above first segment", Position{3, 1}, Position{3, 0}, 1, 0},
		{"right of second segment", Position{12, 5}, Position{10, 5}, 2, 1},
		{"before start clamps", Position{-3, -4}, Position{0, 0}, 5, 0},
		{"corner prefers first segment", Position{11, -1}, Position{10, 0}, math.Sqrt2, 0},
		{"on the line", Position{10, 7}, Position{10, 7}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindNearestPointOnLine(line, tt.point)
			if !got.Point.Equal(tt.want) {
				t.Errorf("Point = %v, want %v", got.Point, tt.want)
			}
			if math.Abs(got.Distance-tt.distance) > 1e-12 {
				t.Errorf("Distance = %v, want %v", got.Distance, tt.distance)
			}
			if got.Segment != tt.segment {
				t.Errorf("Segment = %d, want %d", got.Segment, tt.segment)
			}
		})
	}
}

func TestFindNearestPointOnDegenerateLines(t *testing.T) {
	if got := FindNearestPointOnLine(nil, Position{1, 1}); got.Segment != -1 || !math.IsInf(got.Distance, 1) {
		t.Errorf("empty line = %+v, want segment -1 and infinite distance", got)
	}
	got := FindNearestPointOnLine([]Position{{2, 2}, {2, 2}}, Position{2, 5})
	if !got.Point.Equal(Position{2, 2}) || got.Distance != 3 {
		t.Errorf("zero-length segment = %+v", got)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Position{{-1, -1}, {11, -1}, {11, 11}, {-1, 11}}
	closed := append(append([]Position{}, square...), square[0])
	concave := []Position{{0, 0}, {10, 0}, {10, 10}, {5, 4}, {0, 10}}

	tests := []struct {
		name    string
		p       Position
		polygon []Position
		want    bool
	}{
		{"inside open ring", Position{0, 0}, square, true},
		{"inside closed ring", Position{10, 10}, closed, true},
		{"outside", Position{20, 20}, square, false},
		{"notch of concave polygon", Position{5, 8}, concave, false},
		{"body of concave polygon", Position{5, 2}, concave, true},
		{"degenerate polygon", Position{0, 0}, square[:2], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, tt.polygon); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestAxisAlignedRectangle(t *testing.T) {
	rect := []Position{{-1, -1}, {11, -1}, {11, 11}, {-1, 11}, {-1, -1}}
	box, ok := AxisAlignedRectangle(rect)
	if !ok {
		t.Fatal("AxisAlignedRectangle(rect) = false, want true")
	}
	if box.Min.X != -1 || box.Max.Y != 11 {
		t.Errorf("box = %+v", box)
	}

	notRect := [][]Position{
		{{0, 0}, {10, 0}, {5, 10}},
		{{0, 0}, {10, 1}, {10, 10}, {0, 10}},
		{{0, 0}, {4, 0}, {0, 0}, {0, 3}},
	}
	for _, p := range notRect {
		if _, ok := AxisAlignedRectangle(p); ok {
			t.Errorf("AxisAlignedRectangle(%v) = true, want false", p)
		}
	}
}

func TestBounds(t *testing.T) {
	b := BoundsOf([]Position{{3, -2}, {-1, 5}, {0, 0}})
	if b.Min.X != -1 || b.Min.Y != -2 || b.Max.X != 3 || b.Max.Y != 5 {
		t.Errorf("BoundsOf() = %+v", b)
	}
	if !BoxContains(b, Position{3, 5}) || BoxContains(b, Position{3.1, 0}) {
		t.Error("BoxContains() edge handling is wrong")
	}
	other := BoundsOf([]Position{{3, 5}, {8, 8}})
	if !BoxesIntersect(b, other) {
		t.Error("boxes touching at a corner should intersect")
	}
}

func TestNearestPointProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-100, 100)

	properties.Property("projection is never farther than any vertex", prop.ForAll(
		func(ax, ay, bx, by, cx, cy, px, py float64) bool {
			line := []Position{{ax, ay}, {bx, by}, {cx, cy}}
			p := Position{px, py}
			got := FindNearestPointOnLine(line, p)
			for _, v := range line {
				if got.Distance > Distance(v, p)+1e-9 {
					return false
				}
			}
			return true
		},
		coord, coord, coord, coord, coord, coord, coord, coord,
	))

	properties.Property("projecting a point already on the line is a no-op", prop.ForAll(
		func(ax, ay, bx, by, f float64) bool {
			a, b := Position{ax, ay}, Position{bx, by}
			on := Position{ax + f*(bx-ax), ay + f*(by-ay)}
			got := FindNearestPointOnLine([]Position{a, b}, on)
			return got.Distance < 1e-9
		},
		coord, coord, coord, coord, gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

package retouch

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Point is a position or offset in image pixels. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt returns Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p offset by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rotate turns p about the origin by angle radians.
func (p Point) Rotate(angle float64) Point {
	return Rotate(angle).TransformPoint(p)
}

// IsFinite reports whether neither coordinate is NaN or infinite.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func (p Point) vec2() f64.Vec2 {
	return f64.Vec2{p.X, p.Y}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

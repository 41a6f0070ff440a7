package retouch

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix is a 2D affine transform laid out like f64.Aff3:
//
//	x' = m[0]*x + m[1]*y + m[2]
//	y' = m[3]*x + m[4]*y + m[5]
//
// The zero value is singular; use Identity.
type Matrix f64.Aff3

// Identity returns the transform that leaves points unchanged.
func Identity() Matrix { return Matrix{1, 0, 0, 0, 1, 0} }

// Translate moves points by (x, y).
func Translate(x, y float64) Matrix { return Matrix{1, 0, x, 0, 1, y} }

// Scale scales points about the origin.
func Scale(s float64) Matrix { return Matrix{s, 0, 0, 0, s, 0} }

// Rotate turns points about the origin by angle radians. Image y points
// down, so positive angles turn clockwise on screen.
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{cos, -sin, 0, sin, cos, 0}
}

// Multiply returns the transform that applies n first and then m.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[3], m[0]*n[1] + m[1]*n[4], m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3], m[3]*n[1] + m[4]*n[4], m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

// TransformPoint maps p through m.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y + m[2],
		Y: m[3]*p.X + m[4]*p.Y + m[5],
	}
}

// Invert returns the inverse of m, or Identity when m is singular.
func (m Matrix) Invert() Matrix {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-10 {
		return Identity()
	}
	k := 1 / det
	return Matrix{
		m[4] * k, -m[1] * k, (m[1]*m[5] - m[2]*m[4]) * k,
		-m[3] * k, m[0] * k, (m[2]*m[3] - m[0]*m[5]) * k,
	}
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool { return m == Identity() }

// Aff3 returns m for use with golang.org/x/image/draw.
func (m Matrix) Aff3() f64.Aff3 { return f64.Aff3(m) }

package stroke

import (
	"math"

	"golang.org/x/image/math/f64"
)

const (
	minCircleSegments = 8
	maxCircleSegments = 64
)

// Outline expands a polyline of the given width into polygons covering it.
// A single point yields a dot of diameter width. Non-positive widths and
// empty input yield nil.
func Outline(points []f64.Vec2, width float64) [][]f64.Vec2 {
	if len(points) == 0 || !(width > 0) {
		return nil
	}
	hw := width / 2
	segs := circleSegments(hw)

	polys := make([][]f64.Vec2, 0, 2*len(points))
	for i, p := range points {
		if i > 0 {
			if q := segmentQuad(points[i-1], p, hw); q != nil {
				polys = append(polys, q)
			}
		}
		// Consecutive duplicates would stack identical discs.
		if i > 0 && p == points[i-1] {
			continue
		}
		polys = append(polys, circle(p, hw, segs))
	}
	return polys
}

// Bounds returns the axis-aligned box covering the stroke, or ok=false when
// Outline would produce nothing.
func Bounds(points []f64.Vec2, width float64) (minX, minY, maxX, maxY float64, ok bool) {
	if len(points) == 0 || !(width > 0) {
		return 0, 0, 0, 0, false
	}
	hw := width / 2
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p[0]-hw)
		minY = math.Min(minY, p[1]-hw)
		maxX = math.Max(maxX, p[0]+hw)
		maxY = math.Max(maxY, p[1]+hw)
	}
	return minX, minY, maxX, maxY, true
}

// segmentQuad returns the rectangle around segment ab, or nil when a == b.
func segmentQuad(a, b f64.Vec2, hw float64) []f64.Vec2 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return nil
	}
	// Unit normal scaled to half width.
	nx, ny := -dy/length*hw, dx/length*hw
	return orient([]f64.Vec2{
		{a[0] + nx, a[1] + ny},
		{b[0] + nx, b[1] + ny},
		{b[0] - nx, b[1] - ny},
		{a[0] - nx, a[1] - ny},
	})
}

func circle(c f64.Vec2, r float64, segs int) []f64.Vec2 {
	poly := make([]f64.Vec2, segs)
	for i := range poly {
		theta := 2 * math.Pi * float64(i) / float64(segs)
		poly[i] = f64.Vec2{c[0] + r*math.Cos(theta), c[1] + r*math.Sin(theta)}
	}
	return orient(poly)
}

// circleSegments picks a segment count so that chords stay about a pixel long.
func circleSegments(r float64) int {
	n := int(math.Ceil(2 * math.Pi * r))
	return max(minCircleSegments, min(n, maxCircleSegments))
}

// orient reverses poly in place if needed so that its signed area is positive.
func orient(poly []f64.Vec2) []f64.Vec2 {
	if signedArea(poly) < 0 {
		for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
	return poly
}

func signedArea(poly []f64.Vec2) float64 {
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return sum / 2
}

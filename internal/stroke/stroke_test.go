package stroke

import (
	"image"
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/math/f64"
)

var red = image.NewUniform(color.RGBA{R: 255, A: 255})

func TestOutlineEmpty(t *testing.T) {
	tests := []struct {
		name   string
		points []f64.Vec2
		width  float64
	}{
		{"no points", nil, 3},
		{"zero width", []f64.Vec2{{1, 1}}, 0},
		{"negative width", []f64.Vec2{{1, 1}, {5, 5}}, -2},
		{"nan width", []f64.Vec2{{1, 1}}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outline(tt.points, tt.width); got != nil {
				t.Errorf("Outline() = %v, want nil", got)
			}
		})
	}
}

func TestOutlinePolygonCount(t *testing.T) {
	tests := []struct {
		name   string
		points []f64.Vec2
		want   int
	}{
		{"single point", []f64.Vec2{{5, 5}}, 1},
		{"one segment", []f64.Vec2{{0, 0}, {10, 0}}, 3},
		{"duplicate point", []f64.Vec2{{0, 0}, {0, 0}}, 1},
		{"polyline", []f64.Vec2{{0, 0}, {10, 0}, {10, 10}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Outline(tt.points, 4)); got != tt.want {
				t.Errorf("len(Outline()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOutlineConsistentWinding(t *testing.T) {
	// Segments in every direction must come out with the same orientation.
	pts := []f64.Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}, {7, 3}}
	for i, poly := range Outline(pts, 3) {
		if a := signedArea(poly); a <= 0 {
			t.Errorf("polygon %d signed area = %v, want > 0", i, a)
		}
	}
}

func TestBounds(t *testing.T) {
	minX, minY, maxX, maxY, ok := Bounds([]f64.Vec2{{10, 20}, {30, 5}}, 4)
	if !ok {
		t.Fatal("Bounds() ok = false")
	}
	if minX != 8 || minY != 3 || maxX != 32 || maxY != 22 {
		t.Errorf("Bounds() = (%v,%v,%v,%v), want (8,3,32,22)", minX, minY, maxX, maxY)
	}
	if _, _, _, _, ok := Bounds(nil, 4); ok {
		t.Error("Bounds(nil) ok = true")
	}
}

func TestDrawCoversSegment(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 20))
	Draw(dst, []f64.Vec2{{5, 10}, {35, 10}}, 6, red)

	tests := []struct {
		x, y    int
		covered bool
	}{
		{20, 10, true},
		{5, 10, true},
		{35, 10, true},
		{20, 8, true},
		{20, 2, false},
		{20, 18, false},
		{0, 10, false},
	}
	for _, tt := range tests {
		c := dst.RGBAAt(tt.x, tt.y)
		if got := c.A > 200; got != tt.covered {
			t.Errorf("pixel (%d,%d) alpha = %d, covered = %v, want %v", tt.x, tt.y, c.A, got, tt.covered)
		}
	}
}

func TestDrawSelfOverlapDoesNotCancel(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	// Back and forth over the same segment.
	Draw(dst, []f64.Vec2{{5, 15}, {25, 15}, {5, 15}, {25, 15}}, 6, red)

	if c := dst.RGBAAt(15, 15); c.A != 255 || c.R != 255 {
		t.Errorf("overlapping stroke center = %v, want opaque red", c)
	}
}

func TestDrawSinglePointDot(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	Draw(dst, []f64.Vec2{{10, 10}}, 8, red)

	if c := dst.RGBAAt(10, 10); c.A != 255 {
		t.Errorf("dot center alpha = %d, want 255", c.A)
	}
	if c := dst.RGBAAt(1, 1); c.A != 0 {
		t.Errorf("far pixel alpha = %d, want 0", c.A)
	}
}

func TestDrawClipsToDestination(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// Mostly outside; must not panic and must paint the visible part.
	Draw(dst, []f64.Vec2{{-50, 5}, {5, 5}}, 4, red)
	if c := dst.RGBAAt(2, 5); c.A == 0 {
		t.Error("visible part of clipped stroke not painted")
	}

	Draw(dst, []f64.Vec2{{100, 100}, {200, 200}}, 4, red)
}

func TestDrawOffsetDestination(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 50, 50))
	sub := big.SubImage(image.Rect(20, 20, 40, 40)).(*image.RGBA)

	Draw(sub, []f64.Vec2{{25, 30}, {35, 30}}, 4, red)

	if c := big.RGBAAt(30, 30); c.A != 255 {
		t.Errorf("pixel (30,30) alpha = %d, want 255", c.A)
	}
	if c := big.RGBAAt(10, 30); c.A != 0 {
		t.Errorf("pixel outside sub-image painted: %v", c)
	}
}

func TestDrawBlendsOver(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+2], dst.Pix[i+3] = 255, 255
	}
	half := image.NewUniform(color.RGBA{R: 128, A: 128})
	Draw(dst, []f64.Vec2{{0, 5}, {10, 5}}, 6, half)

	c := dst.RGBAAt(5, 5)
	if c.A != 255 || c.R < 120 || c.B < 120 || c.B > 135 {
		t.Errorf("blended pixel = %v, want about half red over blue", c)
	}
}

package stroke

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// Draw strokes the polyline onto dst, compositing src over the existing
// pixels. Coordinates are in dst's coordinate space.
func Draw(dst draw.Image, points []f64.Vec2, width float64, src image.Image) {
	minX, minY, maxX, maxY, ok := Bounds(points, width)
	if !ok {
		return
	}
	// Rasterize only the part of dst the stroke can touch.
	area := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	Fill(dst, area, Outline(points, width), src)
}

// Fill rasterizes polygons into the area rectangle of dst using
// src as the paint. Polygons outside area are clipped.
func Fill(dst draw.Image, area image.Rectangle, polys [][]f64.Vec2, src image.Image) {
	if area.Empty() || len(polys) == 0 {
		return
	}
	z := vector.NewRasterizer(area.Dx(), area.Dy())
	z.DrawOp = draw.Over

	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		z.MoveTo(float32(poly[0][0]-ox), float32(poly[0][1]-oy))
		for _, p := range poly[1:] {
			z.LineTo(float32(p[0]-ox), float32(p[1]-oy))
		}
		z.ClosePath()
	}
	z.Draw(dst, area, src, area.Min)
}

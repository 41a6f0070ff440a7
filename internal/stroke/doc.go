// Package stroke turns free-hand polylines into filled coverage.
//
// A stroke is expanded into a set of polygons rather than a single outline:
//   - one quad per segment, offset by half the width on each side
//   - one circle per vertex, which yields round joins and round caps
//
// The polygons are then filled with golang.org/x/image/vector. The vector
// rasterizer accumulates signed area, so overlapping polygons only add up
// when they share an orientation. Every polygon produced here is wound the
// same way; overlaps saturate at full coverage instead of cancelling.
//
// # Usage
//
//	pts := []f64.Vec2{{10, 10}, {50, 40}, {90, 10}}
//	stroke.Draw(dst, pts, 6, image.NewUniform(color.RGBA{255, 0, 0, 255}))
package stroke

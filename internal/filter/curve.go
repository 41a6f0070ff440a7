package filter

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/interp"
)

// ErrInvalidCurve is returned when tone curve control points cannot form a
// monotone curve.
var ErrInvalidCurve = errors.New("filter: invalid tone curve")

// CurvePoint is a tone curve control point. X is the input level and Y the
// output level, both in [0, 1].
type CurvePoint struct {
	X, Y float64
}

// ToneCurve remaps every color channel through a monotone cubic spline
// baked into a 256-entry lookup table.
type ToneCurve struct {
	lut [256]uint8
}

// NewToneCurve fits a Fritsch-Butland spline through points. At least three
// points are required and X must be strictly increasing.
func NewToneCurve(points ...CurvePoint) (*ToneCurve, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points, got %d", ErrInvalidCurve, len(points))
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if i > 0 && p.X <= points[i-1].X {
			return nil, fmt.Errorf("%w: x not strictly increasing at point %d", ErrInvalidCurve, i)
		}
		xs[i], ys[i] = p.X, p.Y
	}

	var fb interp.FritschButland
	if err := fb.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}

	c := &ToneCurve{}
	for i := range c.lut {
		x := float64(i) / 255
		switch {
		case x <= xs[0]:
			x = xs[0]
		case x >= xs[len(xs)-1]:
			x = xs[len(xs)-1]
		}
		c.lut[i] = clampUint8(float32(fb.Predict(x) * 255))
	}
	return c, nil
}

// MustToneCurve is like NewToneCurve but panics on error.
// It is meant for curves built from constant control points.
func MustToneCurve(points ...CurvePoint) *ToneCurve {
	c, err := NewToneCurve(points...)
	if err != nil {
		panic(err)
	}
	return c
}

// Map returns the output level for an 8-bit input level.
func (c *ToneCurve) Map(v uint8) uint8 {
	return c.lut[v]
}

// Apply implements Stage.
func (c *ToneCurve) Apply(src *image.RGBA, run Runner) *image.RGBA {
	return mapPixels(src, run, func(r, g, b float32) (float32, float32, float32) {
		return float32(c.lut[clampUint8(r)]), float32(c.lut[clampUint8(g)]), float32(c.lut[clampUint8(b)])
	})
}

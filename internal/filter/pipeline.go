package filter

import (
	"context"
	"errors"
	"image"
	"image/draw"
)

// ErrEmptyImage is returned when a pipeline is given an image without pixels.
var ErrEmptyImage = errors.New("filter: empty image")

// Runner splits [0, height) into row bands and runs fn on each band,
// returning once all bands are done. *parallel.WorkerPool satisfies Runner.
type Runner interface {
	Rows(height int, fn func(y0, y1 int))
}

type serialRunner struct{}

func (serialRunner) Rows(height int, fn func(y0, y1 int)) {
	if height > 0 {
		fn(0, height)
	}
}

// Serial runs every band on the calling goroutine.
var Serial Runner = serialRunner{}

// Stage is one step of a pipeline. Apply must not modify src and must
// return a new image with the same bounds.
type Stage interface {
	Apply(src *image.RGBA, run Runner) *image.RGBA
}

// Pipeline is an ordered list of stages applied one after another.
type Pipeline struct {
	Name   string
	Stages []Stage
}

// NewPipeline creates a pipeline from the given stages.
func NewPipeline(name string, stages ...Stage) *Pipeline {
	return &Pipeline{Name: name, Stages: stages}
}

// Run applies every stage in order. The context is checked before each stage;
// a cancelled context aborts the run with ctx.Err(). src is never modified.
func (p *Pipeline) Run(ctx context.Context, src *image.RGBA, run Runner) (*image.RGBA, error) {
	if src == nil || src.Rect.Empty() {
		return nil, ErrEmptyImage
	}
	if run == nil {
		run = Serial
	}

	cur := anchored(src)
	if len(p.Stages) == 0 {
		if cur == src {
			cur = clone(src)
		}
		return cur, nil
	}

	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur = stage.Apply(cur, run)
	}
	return cur, nil
}

// anchored returns src when it starts at the origin with tightly packed rows,
// or an origin-anchored copy. Stages rely on every image in a run sharing
// the same stride.
func anchored(src *image.RGBA) *image.RGBA {
	if src.Rect.Min == (image.Point{}) && src.Stride == 4*src.Rect.Dx() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}

func clone(src *image.RGBA) *image.RGBA {
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}

// pixelFunc maps a straight-alpha color in [0, 255] to a new color.
// Alpha is preserved by the caller.
type pixelFunc func(r, g, b float32) (float32, float32, float32)

// mapPixels runs fn over every pixel, un-premultiplying before and
// re-premultiplying after, and returns the result in a new image.
func mapPixels(src *image.RGBA, run Runner, fn pixelFunc) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	w := src.Rect.Dx()

	run.Rows(src.Rect.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.Pix[y*src.Stride : y*src.Stride+w*4]
			d := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			for i := 0; i < len(s); i += 4 {
				a := float32(s[i+3])
				if a == 0 {
					continue
				}
				r := float32(s[i+0]) * 255 / a
				g := float32(s[i+1]) * 255 / a
				b := float32(s[i+2]) * 255 / a

				r, g, b = fn(r, g, b)

				f := a / 255
				d[i+0] = clampUint8(clampf(r, 0, 255) * f)
				d[i+1] = clampUint8(clampf(g, 0, 255) * f)
				d[i+2] = clampUint8(clampf(b, 0, 255) * f)
				d[i+3] = s[i+3]
			}
		}
	})
	return dst
}

// Luminance weights (Rec. 709).
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

func luminance(r, g, b float32) float32 {
	return lumR*r + lumG*g + lumB*b
}

// clampUint8 clamps a float32 to [0, 255] and converts to uint8.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package filter

import (
	"image"
	"math"

	"github.com/gogpu/retouch/internal/color"
)

// Exposure scales light in linear space by 2^Stops, like opening the
// aperture by that many stops.
type Exposure struct {
	Stops float32
}

// Apply implements Stage.
func (e *Exposure) Apply(src *image.RGBA, run Runner) *image.RGBA {
	gain := float32(math.Exp2(float64(e.Stops)))
	expose := func(v float32) float32 {
		return float32(color.SRGB(color.Linear(clampUint8(v)) * gain))
	}
	return mapPixels(src, run, func(r, g, b float32) (float32, float32, float32) {
		return expose(r), expose(g), expose(b)
	})
}

// Vibrance raises the saturation of muted colors more than that of
// already saturated ones. Amount 0 leaves the image unchanged.
type Vibrance struct {
	Amount float32
}

// Apply implements Stage.
func (v *Vibrance) Apply(src *image.RGBA, run Runner) *image.RGBA {
	return mapPixels(src, run, func(r, g, b float32) (float32, float32, float32) {
		hi := max(r, g, b)
		lo := min(r, g, b)
		sat := (hi - lo) / 255
		factor := 1 + v.Amount*(1-sat)
		l := luminance(r, g, b)
		return l + (r-l)*factor, l + (g-l)*factor, l + (b-l)*factor
	})
}

// Monochrome tints the image with a single color scaled by luminance and
// blends the result with the original by Intensity.
type Monochrome struct {
	// R, G, B is the tint in [0, 1].
	R, G, B   float32
	Intensity float32
}

// Apply implements Stage.
func (m *Monochrome) Apply(src *image.RGBA, run Runner) *image.RGBA {
	k := clampf(m.Intensity, 0, 1)
	return mapPixels(src, run, func(r, g, b float32) (float32, float32, float32) {
		l := luminance(r, g, b)
		tr, tg, tb := l*m.R, l*m.G, l*m.B
		return r + (tr-r)*k, g + (tg-g)*k, b + (tb-b)*k
	})
}

// Vignette darkens the image toward its corners. The center is untouched;
// Radius widens the clear area and Intensity controls how dark corners get.
type Vignette struct {
	Intensity float32
	Radius    float32
}

// Apply implements Stage.
func (v *Vignette) Apply(src *image.RGBA, run Runner) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	cx, cy := float64(width-1)/2, float64(height-1)/2
	halfDiag := math.Hypot(cx, cy)
	inner := 1 / (1 + max(v.Radius, 0))
	strength := clampf(0.8*v.Intensity, 0, 1)

	run.Rows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.Pix[y*src.Stride : y*src.Stride+width*4]
			d := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
			for x := 0; x < width; x++ {
				var dist float32
				if halfDiag > 0 {
					dist = float32(math.Hypot(float64(x)-cx, float64(y)-cy) / halfDiag)
				}
				shade := 1 - strength*smoothstep(inner, 1, dist)
				i := x * 4
				// Scaling premultiplied color keeps it premultiplied.
				d[i+0] = clampUint8(float32(s[i+0]) * shade)
				d[i+1] = clampUint8(float32(s[i+1]) * shade)
				d[i+2] = clampUint8(float32(s[i+2]) * shade)
				d[i+3] = s[i+3]
			}
		}
	})
	return dst
}

// Unsharp sharpens by adding back the difference between the image and
// a Gaussian-blurred copy of it.
type Unsharp struct {
	Radius    float64
	Intensity float32
}

// Apply implements Stage.
func (u *Unsharp) Apply(src *image.RGBA, run Runner) *image.RGBA {
	blurred := NewBlur(u.Radius).Apply(src, run)
	dst := image.NewRGBA(src.Rect)
	width := src.Rect.Dx()

	run.Rows(src.Rect.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := y * src.Stride
			s := src.Pix[off : off+width*4]
			bl := blurred.Pix[off : off+width*4]
			d := dst.Pix[off : off+width*4]
			for i := 0; i < len(s); i += 4 {
				a := s[i+3]
				for c := 0; c < 3; c++ {
					v := float32(s[i+c]) + u.Intensity*(float32(s[i+c])-float32(bl[i+c]))
					d[i+c] = min(clampUint8(v), a)
				}
				d[i+3] = a
			}
		}
	})
	return dst
}

func smoothstep(edge0, edge1, x float32) float32 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clampf((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

package filter

import (
	"image"
	"image/color"
)

// Test helper functions shared across filter tests.

// newFilled creates an image filled with the given premultiplied color.
func newFilled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// opaque returns an opaque color from 8-bit channels.
func opaque(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// near reports whether two colors differ by at most tol per channel.
func near(a, b color.RGBA, tol int) bool {
	return absi(int(a.R)-int(b.R)) <= tol &&
		absi(int(a.G)-int(b.G)) <= tol &&
		absi(int(a.B)-int(b.B)) <= tol &&
		absi(int(a.A)-int(b.A)) <= tol
}

func absi(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// premultipliedValid reports whether every color channel is at most alpha.
func premultipliedValid(img *image.RGBA) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if img.Pix[i] > a || img.Pix[i+1] > a || img.Pix[i+2] > a {
			return false
		}
	}
	return true
}

// gradient creates an opaque image whose red channel ramps left to right
// and green channel ramps top to bottom.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 96,
				A: 255,
			})
		}
	}
	return img
}

// rowsRunner counts bands while running them serially.
type rowsRunner struct {
	bands int
}

func (r *rowsRunner) Rows(height int, fn func(y0, y1 int)) {
	mid := height / 2
	if mid > 0 {
		r.bands++
		fn(0, mid)
	}
	if height > mid {
		r.bands++
		fn(mid, height)
	}
}

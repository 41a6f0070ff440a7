package filter

import (
	"image"
	"math"
)

// ColorMatrix applies a 4x5 color transformation matrix to an image.
// The transformation is:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias/offset values.
// Color values are straight-alpha in [0, 255] during transformation,
// then clamped back to valid range and re-premultiplied.
type ColorMatrix struct {
	// Matrix is the 4x5 transformation matrix in row-major order.
	// [0-4] = row 0 (R), [5-9] = row 1 (G), [10-14] = row 2 (B), [15-19] = row 3 (A)
	Matrix [20]float32
}

// NewColorMatrix creates a color matrix stage with the given matrix.
func NewColorMatrix(matrix [20]float32) *ColorMatrix {
	return &ColorMatrix{Matrix: matrix}
}

// IdentityMatrix creates a color matrix that passes colors through unchanged.
func IdentityMatrix() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			1, 0, 0, 0, 0, // R
			0, 1, 0, 0, 0, // G
			0, 0, 1, 0, 0, // B
			0, 0, 0, 1, 0, // A
		},
	}
}

// Brightness shifts every channel by amount, where 1.0 adds full white.
// Negative amounts darken.
func Brightness(amount float32) *ColorMatrix {
	o := amount * 255
	return &ColorMatrix{
		Matrix: [20]float32{
			1, 0, 0, 0, o,
			0, 1, 0, 0, o,
			0, 0, 1, 0, o,
			0, 0, 0, 1, 0,
		},
	}
}

// Contrast scales channels around mid gray.
// factor: 0.0 = gray, 1.0 = unchanged, 2.0 = high contrast
func Contrast(factor float32) *ColorMatrix {
	// (color - 128) * factor + 128
	offset := 128 * (1 - factor)
	return &ColorMatrix{
		Matrix: [20]float32{
			factor, 0, 0, 0, offset,
			0, factor, 0, 0, offset,
			0, 0, factor, 0, offset,
			0, 0, 0, 1, 0,
		},
	}
}

// Saturation blends between luminance (0) and the original color (1).
// Values above 1 oversaturate.
func Saturation(factor float32) *ColorMatrix {
	inv := 1 - factor
	return &ColorMatrix{
		Matrix: [20]float32{
			lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
			lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
			lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// Grayscale converts to grayscale using Rec. 709 luminance weights.
func Grayscale() *ColorMatrix {
	return Saturation(0)
}

// Sepia applies the classic sepia tone matrix.
func Sepia() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			0.393, 0.769, 0.189, 0, 0,
			0.349, 0.686, 0.168, 0, 0,
			0.272, 0.534, 0.131, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// Invert inverts the color channels and keeps alpha.
func Invert() *ColorMatrix {
	return &ColorMatrix{
		Matrix: [20]float32{
			-1, 0, 0, 0, 255,
			0, -1, 0, 0, 255,
			0, 0, -1, 0, 255,
			0, 0, 0, 1, 0,
		},
	}
}

// ColorControls combines saturation, additive brightness and contrast,
// applied in that order.
func ColorControls(saturation, brightness, contrast float32) *ColorMatrix {
	return Saturation(saturation).Then(Brightness(brightness)).Then(Contrast(contrast))
}

// Temperature shifts the white point from neutral to target (both in Kelvin).
// A target above neutral warms the image (more red, less blue); a target
// below neutral cools it.
func Temperature(neutral, target float64) *ColorMatrix {
	if neutral <= 0 {
		return IdentityMatrix()
	}
	warmth := float32((target - neutral) / neutral)
	rGain := clampf(1+0.5*warmth, 0, 2)
	bGain := clampf(1-0.5*warmth, 0, 2)
	return &ColorMatrix{
		Matrix: [20]float32{
			rGain, 0, 0, 0, 0,
			0, 1, 0, 0, 0,
			0, 0, bGain, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// Mix returns a matrix that blends this one with identity.
// intensity 0 leaves colors unchanged, 1 applies the full matrix.
func (f *ColorMatrix) Mix(intensity float32) *ColorMatrix {
	id := IdentityMatrix()
	out := &ColorMatrix{}
	for i := range out.Matrix {
		out.Matrix[i] = id.Matrix[i] + (f.Matrix[i]-id.Matrix[i])*intensity
	}
	return out
}

// Then returns a matrix equivalent to applying f first and next second.
func (f *ColorMatrix) Then(next *ColorMatrix) *ColorMatrix {
	a := &f.Matrix
	b := &next.Matrix

	result := &ColorMatrix{}
	r := &result.Matrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += b[row*5+k] * a[k*5+col]
			}
			if col == 4 {
				sum += b[row*5+4]
			}
			r[row*5+col] = sum
		}
	}
	return result
}

// Apply implements Stage.
func (f *ColorMatrix) Apply(src *image.RGBA, run Runner) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	w := src.Rect.Dx()
	m := &f.Matrix

	run.Rows(src.Rect.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := src.Pix[y*src.Stride : y*src.Stride+w*4]
			d := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			for i := 0; i < len(s); i += 4 {
				// Un-premultiply RGB: the matrix coefficients assume straight alpha.
				a := float32(s[i+3])
				var r, g, b float32
				if a > 0 {
					r = float32(s[i+0]) * 255 / a
					g = float32(s[i+1]) * 255 / a
					b = float32(s[i+2]) * 255 / a
				}

				newR := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
				newG := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
				newB := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
				newA := m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]

				newA = clampf(newA, 0, 255)
				if newA > 0 {
					factor := newA / 255
					newR = clampf(newR, 0, 255) * factor
					newG = clampf(newG, 0, 255) * factor
					newB = clampf(newB, 0, 255) * factor
				} else {
					newR, newG, newB = 0, 0, 0
				}

				d[i+0] = clampUint8(newR)
				d[i+1] = clampUint8(newG)
				d[i+2] = clampUint8(newB)
				d[i+3] = clampUint8(newA)
			}
		}
	})
	return dst
}

// IsIdentity reports whether the matrix leaves colors unchanged.
func (f *ColorMatrix) IsIdentity() bool {
	id := IdentityMatrix()
	for i := range f.Matrix {
		if math.Abs(float64(f.Matrix[i]-id.Matrix[i])) > 1e-6 {
			return false
		}
	}
	return true
}

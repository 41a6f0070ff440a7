package filter

import (
	"image"
	"sync"
)

// Blur is a separable Gaussian blur. Horizontal and vertical passes are
// convolved independently, so the cost is O(w*h*(rx+ry)).
// Blurring runs on premultiplied data so transparent pixels do not bleed color.
type Blur struct {
	// RadiusX is the horizontal standard deviation in pixels.
	RadiusX float64

	// RadiusY is the vertical standard deviation in pixels.
	RadiusY float64
}

// NewBlur creates a blur with equal radius in both directions.
func NewBlur(radius float64) *Blur {
	return &Blur{RadiusX: radius, RadiusY: radius}
}

// NewBlurXY creates an anisotropic blur.
func NewBlurXY(radiusX, radiusY float64) *Blur {
	return &Blur{RadiusX: radiusX, RadiusY: radiusY}
}

// Apply implements Stage. Edges are extended by clamping.
func (f *Blur) Apply(src *image.RGBA, run Runner) *image.RGBA {
	if f.RadiusX <= 0 && f.RadiusY <= 0 {
		return clone(src)
	}

	width, height := src.Rect.Dx(), src.Rect.Dy()
	temp := getTempBuffer(width, height)
	defer putTempBuffer(temp)

	kernelX := CachedGaussianKernel(f.RadiusX)
	kernelY := CachedGaussianKernel(f.RadiusY)

	run.Rows(height, func(y0, y1 int) {
		blurHorizontal(src, temp, y0, y1, kernelX)
	})

	dst := image.NewRGBA(src.Rect)
	run.Rows(height, func(y0, y1 int) {
		blurVertical(temp, dst, y0, y1, kernelY)
	})
	return dst
}

// blurHorizontal convolves rows [y0, y1) of src into temp.
func blurHorizontal(src *image.RGBA, temp []float32, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2
	width := src.Rect.Dx()

	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := clampInt(x+k-half, 0, width-1)
				i := kx * 4
				r += float32(row[i+0]) * weight
				g += float32(row[i+1]) * weight
				b += float32(row[i+2]) * weight
				a += float32(row[i+3]) * weight
			}
			t := (y*width + x) * 4
			temp[t+0] = r
			temp[t+1] = g
			temp[t+2] = b
			temp[t+3] = a
		}
	}
}

// blurVertical convolves columns of temp into rows [y0, y1) of dst.
func blurVertical(temp []float32, dst *image.RGBA, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2
	width, height := dst.Rect.Dx(), dst.Rect.Dy()

	for y := y0; y < y1; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := clampInt(y+k-half, 0, height-1)
				t := (ky*width + x) * 4
				r += temp[t+0] * weight
				g += temp[t+1] * weight
				b += temp[t+2] * weight
				a += temp[t+3] * weight
			}
			// Rounding can push a color channel one step above alpha.
			ca := clampUint8(a)
			i := x * 4
			row[i+0] = min(clampUint8(r), ca)
			row[i+1] = min(clampUint8(g), ca)
			row[i+2] = min(clampUint8(b), ca)
			row[i+3] = ca
		}
	}
}

// floatBuffer wraps a slice for sync.Pool.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() any {
		return &floatBuffer{data: make([]float32, 512*512*4)}
	},
}

// getTempBuffer returns a buffer of exactly width*height*4 elements.
// Every element is overwritten by the horizontal pass, so it is not cleared.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	return wrapper.data[:size]
}

func putTempBuffer(buf []float32) {
	if cap(buf) <= 16*1024*1024 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

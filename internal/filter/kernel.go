package filter

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gogpu/retouch/internal/cache"
)

// GaussianKernel returns a normalized 1D Gaussian with sigma = radius,
// truncated at three sigma: 2*ceil(3*radius)+1 taps. Non-positive radii
// give the single tap [1].
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(radius * 3))
	twoSigmaSq := 2 * radius * radius

	weights := make([]float64, 2*half+1)
	for i := range weights {
		x := float64(i - half)
		weights[i] = math.Exp(-x * x / twoSigmaSq)
	}
	floats.Scale(1/floats.Sum(weights), weights)

	kernel := make([]float32, len(weights))
	for i, w := range weights {
		kernel[i] = float32(w)
	}
	return kernel
}

// kernels holds recently used kernels keyed by radius in hundredths.
var kernels = cache.New[int, []float32](64)

// CachedGaussianKernel returns a shared kernel for radius. The slice must
// not be modified.
func CachedGaussianKernel(radius float64) []float32 {
	return kernels.GetOrCreate(int(math.Round(radius*100)), func() []float32 {
		return GaussianKernel(radius)
	})
}

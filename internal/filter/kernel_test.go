package filter

import (
	"fmt"
	"math"
	"testing"
)

func TestGaussianKernelNonPositiveRadius(t *testing.T) {
	for _, r := range []float64{0, -5} {
		kernel := GaussianKernel(r)
		if len(kernel) != 1 || kernel[0] != 1.0 {
			t.Errorf("GaussianKernel(%v) = %v, want [1]", r, kernel)
		}
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	radii := []float64{1, 2, 3, 5, 10, 20}

	for _, r := range radii {
		kernel := GaussianKernel(r)

		var sum float32
		for _, v := range kernel {
			sum += v
		}

		if math.Abs(float64(sum)-1.0) > 0.001 {
			t.Errorf("GaussianKernel(%v) sum = %v, want ~1.0", r, sum)
		}
	}
}

func TestGaussianKernelSymmetric(t *testing.T) {
	kernel := GaussianKernel(5)
	n := len(kernel)

	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if math.Abs(float64(kernel[i]-kernel[j])) > 0.0001 {
			t.Errorf("kernel[%d] = %v != kernel[%d] = %v (asymmetric)", i, kernel[i], j, kernel[j])
		}
	}
}

func TestGaussianKernelSize(t *testing.T) {
	tests := []struct {
		radius   float64
		wantSize int
	}{
		{0.5, 5},
		{1.0, 7},
		{2.0, 13},
		{5.0, 31},
		{10.0, 61},
	}

	for _, tt := range tests {
		kernel := GaussianKernel(tt.radius)
		if len(kernel) != tt.wantSize {
			t.Errorf("GaussianKernel(%v) len = %d, want %d", tt.radius, len(kernel), tt.wantSize)
		}
	}
}

func TestGaussianKernelPeakAtCenter(t *testing.T) {
	kernel := GaussianKernel(5)
	center := len(kernel) / 2

	maxIdx := 0
	for i, v := range kernel {
		if v > kernel[maxIdx] {
			maxIdx = i
		}
	}

	if maxIdx != center {
		t.Errorf("kernel peak at %d, want %d (center)", maxIdx, center)
	}
}

func TestCachedGaussianKernel(t *testing.T) {
	kernel1 := CachedGaussianKernel(5.0)
	kernel2 := CachedGaussianKernel(5.0)

	if len(kernel1) != len(kernel2) {
		t.Fatalf("cached kernel len mismatch: %d != %d", len(kernel1), len(kernel2))
	}
	for i := range kernel1 {
		if kernel1[i] != kernel2[i] {
			t.Errorf("cached kernel[%d] mismatch: %v != %v", i, kernel1[i], kernel2[i])
		}
	}

	if k := CachedGaussianKernel(10.0); len(k) == len(kernel1) {
		t.Error("different radii should produce different kernel sizes")
	}
}

func TestCachedGaussianKernelShared(t *testing.T) {
	a := CachedGaussianKernel(3.3)
	b := CachedGaussianKernel(3.3)
	if &a[0] != &b[0] {
		t.Error("CachedGaussianKernel(3.3) returned distinct slices")
	}
	if s := kernels.Stats(); s.Len > s.Limit {
		t.Errorf("kernel cache Len = %d, over limit %d", s.Len, s.Limit)
	}
}

func BenchmarkGaussianKernel(b *testing.B) {
	for _, r := range []float64{1, 5, 10, 20} {
		b.Run(fmt.Sprintf("r=%g", r), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = GaussianKernel(r)
			}
		})
	}
}

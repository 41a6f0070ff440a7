package filter

import (
	"fmt"
	"image/color"
	"testing"
)

func TestNewBlur(t *testing.T) {
	f := NewBlur(5)
	if f.RadiusX != 5 || f.RadiusY != 5 {
		t.Errorf("NewBlur(5) = %+v, want RadiusX=RadiusY=5", f)
	}

	xy := NewBlurXY(3, 7)
	if xy.RadiusX != 3 || xy.RadiusY != 7 {
		t.Errorf("NewBlurXY(3, 7) = %+v", xy)
	}
}

func TestBlurZeroRadiusCopies(t *testing.T) {
	src := newFilled(10, 10, opaque(255, 0, 0))
	dst := NewBlur(0).Apply(src, Serial)

	if &dst.Pix[0] == &src.Pix[0] {
		t.Fatal("zero radius blur returned the source buffer")
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if got := dst.RGBAAt(x, y); got != opaque(255, 0, 0) {
				t.Errorf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
}

func TestBlurSpreadsCenterPixel(t *testing.T) {
	src := newFilled(5, 5, opaque(0, 0, 0))
	src.SetRGBA(2, 2, opaque(255, 255, 255))

	dst := NewBlur(1).Apply(src, Serial)

	center := dst.RGBAAt(2, 2)
	if center.R == 255 || center.R == 0 {
		t.Errorf("center pixel should be partially blurred, got R=%d", center.R)
	}
	if adj := dst.RGBAAt(2, 1); adj.R == 0 {
		t.Error("blur should spread to adjacent pixels")
	}
}

func TestBlurUniformImageUnchanged(t *testing.T) {
	c := opaque(90, 140, 200)
	dst := NewBlur(3).Apply(newFilled(12, 9, c), Serial)

	for y := 0; y < 9; y++ {
		for x := 0; x < 12; x++ {
			if got := dst.RGBAAt(x, y); !near(got, c, 1) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestBlurKeepsPremultipliedInvariant(t *testing.T) {
	src := newFilled(8, 8, color.RGBA{})
	src.SetRGBA(3, 3, color.RGBA{R: 200, G: 10, B: 0, A: 200})
	src.SetRGBA(4, 4, opaque(255, 255, 255))

	dst := NewBlur(2).Apply(src, Serial)
	if !premultipliedValid(dst) {
		t.Error("blur output has color channels above alpha")
	}
}

func TestBlurOnlyHorizontal(t *testing.T) {
	src := newFilled(9, 9, opaque(0, 0, 0))
	for y := 0; y < 9; y++ {
		src.SetRGBA(4, y, opaque(255, 255, 255))
	}

	dst := NewBlurXY(2, 0).Apply(src, Serial)

	// A vertical line blurred horizontally stays identical on every row.
	for y := 1; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if dst.RGBAAt(x, y) != dst.RGBAAt(x, 0) {
				t.Fatalf("row %d differs from row 0 at x=%d", y, x)
			}
		}
	}
	if dst.RGBAAt(3, 0).R == 0 {
		t.Error("horizontal blur should spread the line sideways")
	}
}

func TestBlurParallelMatchesSerial(t *testing.T) {
	src := gradient(31, 17)
	serial := NewBlur(2.5).Apply(src, Serial)
	banded := NewBlur(2.5).Apply(src, &rowsRunner{})

	for i := range serial.Pix {
		if serial.Pix[i] != banded.Pix[i] {
			t.Fatalf("byte %d: serial %d, banded %d", i, serial.Pix[i], banded.Pix[i])
		}
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{-1, 0, 9, 0},
		{5, 0, 9, 5},
		{12, 0, 9, 9},
	}
	for _, tt := range tests {
		if got := clampInt(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestClampUint8(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-10, 0},
		{0, 0},
		{127.4, 127},
		{127.6, 128},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clampUint8(tt.in); got != tt.want {
			t.Errorf("clampUint8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func BenchmarkBlur(b *testing.B) {
	src := gradient(256, 256)
	for _, r := range []float64{1, 5, 10} {
		f := NewBlur(r)
		b.Run(fmt.Sprintf("r=%g", r), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				f.Apply(src, Serial)
			}
		})
	}
}

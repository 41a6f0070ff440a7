package retouch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func mustBuffer(t testing.TB, img image.Image) *ImageBuffer {
	t.Helper()
	b, err := NewImageBuffer(img)
	if err != nil {
		t.Fatalf("NewImageBuffer() error = %v", err)
	}
	return b
}

func TestNewImageBufferCopies(t *testing.T) {
	src := checker(4, 3)
	b := mustBuffer(t, src)

	src.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	if got := b.RGBAAt(0, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("buffer changed with its source: %v", got)
	}

	out := b.RGBA()
	out.Pix[0] = 7
	if b.RGBAAt(0, 0).R != 255 {
		t.Error("RGBA() returned shared pixels")
	}

	if b.Width() != 4 || b.Height() != 3 || b.ColorSpace() != ColorSpaceSRGB {
		t.Errorf("got %dx%d %s, want 4x3 srgb", b.Width(), b.Height(), b.ColorSpace())
	}
}

func TestNewImageBufferAnchorsOrigin(t *testing.T) {
	sub := checker(10, 10).SubImage(image.Rect(3, 4, 7, 9))
	b := mustBuffer(t, sub)

	if b.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Errorf("Bounds() = %v, want (0,0)-(4,5)", b.Bounds())
	}
	// (3,4) in the checker has an odd coordinate sum.
	if got := b.RGBAAt(0, 0); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("RGBAAt(0,0) = %v, want blue", got)
	}
}

func TestNewImageBufferErrors(t *testing.T) {
	if _, err := NewImageBuffer(nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("NewImageBuffer(nil) error = %v, want ErrNilImage", err)
	}
	if _, err := NewImageBuffer(image.NewRGBA(image.Rect(0, 0, 0, 3))); !errors.Is(err, ErrNilImage) {
		t.Errorf("NewImageBuffer(empty) error = %v, want ErrNilImage", err)
	}
	if _, err := NewSolidImageBuffer(0, 4, White); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewSolidImageBuffer(0, 4) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestImageBufferIDsUnique(t *testing.T) {
	a := mustBuffer(t, checker(2, 2))
	b := mustBuffer(t, checker(2, 2))
	if a.ID() == b.ID() {
		t.Error("two buffers share an ID")
	}
	if !a.SamePixels(b) {
		t.Error("SamePixels() = false for identical content")
	}
	c, _ := NewSolidImageBuffer(2, 2, Red)
	if a.SamePixels(c) {
		t.Error("SamePixels() = true for different content")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	src := mustBuffer(t, checker(5, 6))
	data, err := src.PNG()
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}

	got, format, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if !got.SamePixels(src) {
		t.Error("decoded pixels differ from source")
	}

	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("DecodeBytes(garbage) error = nil")
	}
}

func TestEncodeJPEG(t *testing.T) {
	b, _ := NewSolidImageBuffer(8, 8, Green)
	var out bytes.Buffer
	if err := b.EncodeJPEG(&out, 90); err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	back, format, err := Decode(&out)
	if err != nil || format != "jpeg" {
		t.Fatalf("Decode(jpeg) = %v, %q", err, format)
	}
	if c := back.RGBAAt(4, 4); c.G < 240 || c.R > 15 {
		t.Errorf("jpeg center = %v, want green", c)
	}
}

func TestFit(t *testing.T) {
	b := mustBuffer(t, checker(400, 200))

	if got := b.Fit(0); got != b {
		t.Error("Fit(0) should return the same buffer")
	}
	if got := b.Fit(500); got != b {
		t.Error("Fit(larger) should return the same buffer")
	}

	small := b.Fit(256)
	if small.Width() != 256 || small.Height() != 128 {
		t.Errorf("Fit(256) = %dx%d, want 256x128", small.Width(), small.Height())
	}
}

func TestThumbnailAspectFill(t *testing.T) {
	// Left half red, right half blue, wide image.
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 200 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	b := mustBuffer(t, img)

	th, err := b.Thumbnail(200, 200)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if th.Width() != 200 || th.Height() != 200 {
		t.Fatalf("Thumbnail size = %dx%d, want 200x200", th.Width(), th.Height())
	}
	// The center crop keeps the red/blue split in the middle.
	if c := th.RGBAAt(20, 100); c.R < 200 {
		t.Errorf("left of thumbnail = %v, want red", c)
	}
	if c := th.RGBAAt(180, 100); c.B < 200 {
		t.Errorf("right of thumbnail = %v, want blue", c)
	}
	if c := th.RGBAAt(100, 0); c.A != 255 {
		t.Errorf("thumbnail is not fully covered: %v", c)
	}

	if _, err := b.Thumbnail(0, 10); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Thumbnail(0, 10) error = %v", err)
	}
}

func TestPNGEncodesPremultipliedCorrectly(t *testing.T) {
	b, _ := NewSolidImageBuffer(1, 1, RGBA{R: 1, A: 0.5})
	data, _ := b.PNG()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	n := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	if n.R < 250 || n.A != 128 {
		t.Errorf("decoded = %v, want straight red at half alpha", n)
	}
}

package retouch

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	// Register decoders for the formats accepted by Decode.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// Decode reads an encoded image (PNG, JPEG, GIF, WebP, BMP or TIFF) and
// returns it with the name of its format.
func Decode(r io.Reader) (*ImageBuffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("retouch: decode: %w", err)
	}
	buf, err := NewImageBuffer(img)
	if err != nil {
		return nil, "", err
	}
	return buf, format, nil
}

// DecodeBytes is Decode over an in-memory encoded image.
func DecodeBytes(data []byte) (*ImageBuffer, error) {
	buf, _, err := Decode(bytes.NewReader(data))
	return buf, err
}

// EncodePNG writes the buffer as PNG.
func (b *ImageBuffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.pix)
}

// EncodeJPEG writes the buffer as JPEG with the given quality (1-100).
func (b *ImageBuffer) EncodeJPEG(w io.Writer, quality int) error {
	return jpeg.Encode(w, b.pix, &jpeg.Options{Quality: quality})
}

// PNG returns the PNG encoding of the buffer.
func (b *ImageBuffer) PNG() ([]byte, error) {
	var out bytes.Buffer
	if err := b.EncodePNG(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Resize returns a new buffer scaled to width x height with Catmull-Rom
// resampling. The aspect ratio is not preserved.
func (b *ImageBuffer) Resize(width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, b.pix, b.pix.Rect, xdraw.Src, nil)
	return wrap(dst, b.space), nil
}

// Fit scales the buffer down, preserving aspect ratio, so that neither side
// exceeds maxDim. It returns b itself when it already fits or maxDim <= 0.
func (b *ImageBuffer) Fit(maxDim int) *ImageBuffer {
	w, h := b.Width(), b.Height()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return b
	}
	s := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*s)))
	nh := max(1, int(math.Round(float64(h)*s)))
	out, _ := b.Resize(nw, nh)
	return out
}

// Thumbnail returns a width x height buffer that covers the whole box:
// the image is scaled to fill it and the overflow is cropped evenly.
func (b *ImageBuffer) Thumbnail(width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	w, h := float64(b.Width()), float64(b.Height())
	s := math.Max(float64(width)/w, float64(height)/h)

	// Source rectangle that maps onto the full thumbnail.
	sw := math.Min(w, float64(width)/s)
	sh := math.Min(h, float64(height)/s)
	x0 := int(math.Round((w - sw) / 2))
	y0 := int(math.Round((h - sh) / 2))
	src := image.Rect(x0, y0, x0+max(1, int(math.Round(sw))), y0+max(1, int(math.Round(sh)))).Intersect(b.pix.Rect)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, b.pix, src, xdraw.Src, nil)
	return wrap(dst, b.space), nil
}

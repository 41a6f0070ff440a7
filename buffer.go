package retouch

import (
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"
)

// ColorSpace identifies how pixel values are to be interpreted.
type ColorSpace string

// Known color spaces.
const (
	ColorSpaceSRGB      ColorSpace = "srgb"
	ColorSpaceDisplayP3 ColorSpace = "display-p3"
)

var bufferIDs atomic.Uint64

// ImageBuffer is an immutable handle to decoded pixel data.
//
// Pixels are stored premultiplied, 8 bits per channel, anchored at the origin.
// An ImageBuffer is never modified after construction, so it can be shared
// freely between goroutines, session fields and history snapshots. Identity is
// by reference; ID is unique within the process.
type ImageBuffer struct {
	id    uint64
	pix   *image.RGBA
	space ColorSpace
}

// NewImageBuffer copies img into a new buffer in the sRGB color space.
func NewImageBuffer(img image.Image) (*ImageBuffer, error) {
	return NewImageBufferIn(img, ColorSpaceSRGB)
}

// NewImageBufferIn copies img into a new buffer tagged with space.
func NewImageBufferIn(img image.Image, space ColorSpace) (*ImageBuffer, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return wrap(dst, space), nil
}

// NewSolidImageBuffer creates a width x height buffer filled with c.
func NewSolidImageBuffer(width, height int, c RGBA) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Rect, image.NewUniform(c.Color()), image.Point{}, draw.Src)
	return wrap(dst, ColorSpaceSRGB), nil
}

// wrap takes ownership of pix without copying. Callers must not retain pix.
func wrap(pix *image.RGBA, space ColorSpace) *ImageBuffer {
	if space == "" {
		space = ColorSpaceSRGB
	}
	return &ImageBuffer{
		id:    bufferIDs.Add(1),
		pix:   pix,
		space: space,
	}
}

// ID returns the process-unique identity of the buffer.
func (b *ImageBuffer) ID() uint64 { return b.id }

// Width returns the width in pixels.
func (b *ImageBuffer) Width() int { return b.pix.Rect.Dx() }

// Height returns the height in pixels.
func (b *ImageBuffer) Height() int { return b.pix.Rect.Dy() }

// Size returns the width and height as a point.
func (b *ImageBuffer) Size() image.Point { return b.pix.Rect.Size() }

// ColorSpace returns the color space id.
func (b *ImageBuffer) ColorSpace() ColorSpace { return b.space }

// ColorModel implements image.Image.
func (b *ImageBuffer) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image. The rectangle always starts at the origin.
func (b *ImageBuffer) Bounds() image.Rectangle { return b.pix.Rect }

// At implements image.Image.
func (b *ImageBuffer) At(x, y int) color.Color { return b.pix.RGBAAt(x, y) }

// RGBAAt returns the premultiplied color at (x, y).
func (b *ImageBuffer) RGBAAt(x, y int) color.RGBA { return b.pix.RGBAAt(x, y) }

// RGBA returns a copy of the pixels that the caller may modify.
func (b *ImageBuffer) RGBA() *image.RGBA {
	dst := &image.RGBA{
		Pix:    make([]uint8, len(b.pix.Pix)),
		Stride: b.pix.Stride,
		Rect:   b.pix.Rect,
	}
	copy(dst.Pix, b.pix.Pix)
	return dst
}

// pixels returns the shared backing image. It must be treated as read-only.
func (b *ImageBuffer) pixels() *image.RGBA { return b.pix }

// SamePixels reports whether b and other hold bit-identical pixels,
// dimensions and color space.
func (b *ImageBuffer) SamePixels(other *ImageBuffer) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil {
		return false
	}
	if b.space != other.space || b.pix.Rect != other.pix.Rect {
		return false
	}
	w := b.Width() * 4
	for y := 0; y < b.Height(); y++ {
		r1 := b.pix.Pix[y*b.pix.Stride : y*b.pix.Stride+w]
		r2 := other.pix.Pix[y*other.pix.Stride : y*other.pix.Stride+w]
		if string(r1) != string(r2) {
			return false
		}
	}
	return true
}

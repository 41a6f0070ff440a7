package typeset

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Draw renders a single line of text with its line box's top-left corner
// at (x, y) in dst coordinates, compositing src over dst.
// Glyphs falling outside dst are clipped.
func (l *Library) Draw(dst draw.Image, text, family string, size, x, y float64, src image.Image) error {
	if text == "" || size <= 0 {
		return nil
	}
	f := l.Resolve(family)
	if f == nil {
		return ErrUnknownFamily
	}

	face, err := opentype.NewFace(f.glyphs, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return &ParseError{Family: f.Name, Err: err}
	}
	defer func() {
		_ = face.Close()
	}()

	baseline := y + fixedToFloat(face.Metrics().Ascent)
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(baseline)},
	}
	d.DrawString(text)
	return nil
}

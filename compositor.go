package retouch

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/retouch/internal/stroke"
	"github.com/gogpu/retouch/internal/typeset"
)

// LayerKind identifies what a render plan entry draws.
type LayerKind int

const (
	LayerBase LayerKind = iota
	LayerStroke
	LayerText
)

func (k LayerKind) String() string {
	switch k {
	case LayerBase:
		return "base"
	case LayerStroke:
		return "stroke"
	case LayerText:
		return "text"
	}
	return "unknown"
}

// Layer is one entry of a render plan.
type Layer struct {
	Kind LayerKind
	// Index is the position of the overlay in its stroke or text list.
	// It is zero for the base layer.
	Index int
	// Visible is false for entries that leave no mark.
	Visible bool
	// Box is the area the entry may touch, clipped to the image.
	Box image.Rectangle
}

// Compositor flattens an image, its overlays and a transform into a new
// image. The zero value is not usable; use NewCompositor.
//
// Compositor is safe for concurrent use.
type Compositor struct {
	fonts *typeset.Library
}

// NewCompositor returns a compositor using the bundled font families.
func NewCompositor() *Compositor {
	return &Compositor{fonts: typeset.Default()}
}

// newCompositorWithFonts is used by sessions that register their own fonts.
func newCompositorWithFonts(fonts *typeset.Library) *Compositor {
	return &Compositor{fonts: fonts}
}

// FontFamilies returns the names of the available font families.
func (c *Compositor) FontFamilies() []string {
	return c.fonts.Families()
}

// Plan returns the draw list for an image with the given bounds: the base
// image, then every stroke in order, then every text overlay in order.
// Later entries draw on top of earlier ones.
func (c *Compositor) Plan(bounds image.Rectangle, strokes []Stroke, texts []TextOverlay) []Layer {
	plan := make([]Layer, 0, 1+len(strokes)+len(texts))
	plan = append(plan, Layer{Kind: LayerBase, Visible: true, Box: bounds})

	for i, s := range strokes {
		l := Layer{Kind: LayerStroke, Index: i}
		if s.Visible() {
			l.Box = strokeBox(s).Intersect(bounds)
			l.Visible = !l.Box.Empty()
		}
		plan = append(plan, l)
	}

	for i, t := range texts {
		l := Layer{Kind: LayerText, Index: i}
		if t.Text != "" {
			l.Box = c.TextBox(t).Intersect(bounds)
			l.Visible = !l.Box.Empty()
		}
		plan = append(plan, l)
	}
	return plan
}

// TextBox returns the unclipped box covered by t in image coordinates.
func (c *Compositor) TextBox(t TextOverlay) image.Rectangle {
	f := t.Font.withDefaults()
	ext := c.fonts.Measure(t.Text, f.Family, f.Size)
	return image.Rect(
		int(math.Floor(t.Position.X)), int(math.Floor(t.Position.Y)),
		int(math.Ceil(t.Position.X+ext.Width)), int(math.Ceil(t.Position.Y+ext.Height)),
	)
}

func strokeBox(s Stroke) image.Rectangle {
	minX, minY, maxX, maxY, ok := stroke.Bounds(strokePoints(s), s.Width)
	if !ok {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

func strokePoints(s Stroke) []f64.Vec2 {
	pts := make([]f64.Vec2, len(s.Points))
	for i, p := range s.Points {
		pts[i] = p.vec2()
	}
	return pts
}

// Render draws the plan for img and returns the flattened result.
// The transform is applied to the whole composited canvas about its center
// with bilinear resampling; areas uncovered by the transformed image are
// transparent. Render returns nil when img is nil. Inputs are not modified.
func (c *Compositor) Render(img *ImageBuffer, strokes []Stroke, texts []TextOverlay, t TransformState) *ImageBuffer {
	if img == nil {
		return nil
	}
	canvas := img.RGBA()
	bounds := canvas.Rect

	for _, l := range c.Plan(bounds, strokes, texts) {
		if !l.Visible {
			continue
		}
		switch l.Kind {
		case LayerStroke:
			s := strokes[l.Index]
			stroke.Draw(canvas, strokePoints(s), s.Width, image.NewUniform(s.Color.Color()))
		case LayerText:
			c.drawText(canvas, l.Box, texts[l.Index])
		}
	}

	if !t.IsIdentity() && t.Valid() {
		canvas = transformCanvas(canvas, t)
	}
	return wrap(canvas, img.ColorSpace())
}

func (c *Compositor) drawText(canvas *image.RGBA, box image.Rectangle, t TextOverlay) {
	f := t.Font.withDefaults()
	dst := canvas.SubImage(box).(*image.RGBA)
	src := image.NewUniform(t.Color.Color())
	if err := c.fonts.Draw(dst, t.Text, f.Family, f.Size, t.Position.X, t.Position.Y, src); err != nil {
		Logger().Warn("retouch: text overlay not drawn", "id", t.ID, "family", f.Family, "error", err)
	}
}

func transformCanvas(src *image.RGBA, t TransformState) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	m := t.Matrix(src.Rect.Size())
	xdraw.BiLinear.Transform(dst, m.Aff3(), src, src.Rect, xdraw.Src, nil)
	return dst
}

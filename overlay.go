package retouch

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Default overlay styling.
const (
	DefaultStrokeWidth = 3.0
	DefaultFontSize    = 24.0
)

// Stroke is a free-hand polyline drawn over the image.
// Points are in image coordinates and are drawn in order.
type Stroke struct {
	Points []Point
	Color  RGBA
	Width  float64
}

// Clone returns a deep copy of s.
func (s Stroke) Clone() Stroke {
	s.Points = slices.Clone(s.Points)
	return s
}

// Visible reports whether the stroke leaves a mark when rendered.
// Strokes with fewer than two points are kept but not drawn.
func (s Stroke) Visible() bool {
	return len(s.Points) >= 2 && s.Width > 0 && s.Color.A > 0
}

// Equal reports whether two strokes have the same points and style.
func (s Stroke) Equal(o Stroke) bool {
	return s.Color == o.Color && s.Width == o.Width && slices.Equal(s.Points, o.Points)
}

// TextID identifies a text overlay within a session.
// IDs increase monotonically and are never reused.
type TextID uint64

// FontDescriptor names a font family and a size in pixels.
type FontDescriptor struct {
	Family string  `json:"family" yaml:"family"`
	Size   float64 `json:"size" yaml:"size"`
}

// TextOverlay is a single line of text placed over the image.
// Position is the top-left corner of the text box in image coordinates.
type TextOverlay struct {
	ID       TextID
	Text     string
	Position Point
	Font     FontDescriptor
	Color    RGBA
}

// TextUpdate lists the fields to change on a text overlay.
// Nil fields are left as they are.
type TextUpdate struct {
	Text     *string
	Position *Point
	Font     *FontDescriptor
	Color    *RGBA
}

// IsEmpty reports whether the update changes nothing.
func (u TextUpdate) IsEmpty() bool {
	return u.Text == nil && u.Position == nil && u.Font == nil && u.Color == nil
}

// apply returns t with the update applied. The text is normalized.
func (u TextUpdate) apply(t TextOverlay) (TextOverlay, error) {
	if u.Text != nil {
		s := normalizeText(*u.Text)
		if s == "" {
			return t, ErrEmptyText
		}
		t.Text = s
	}
	if u.Position != nil {
		if !u.Position.IsFinite() {
			return t, ErrInvalidPosition
		}
		t.Position = *u.Position
	}
	if u.Font != nil {
		t.Font = u.Font.withDefaults()
	}
	if u.Color != nil {
		t.Color = *u.Color
	}
	return t, nil
}

func (f FontDescriptor) withDefaults() FontDescriptor {
	if !(f.Size > 0) {
		f.Size = DefaultFontSize
	}
	return f
}

// normalizeText converts s to Unicode NFC so that visually identical text
// compares equal regardless of how it was typed.
func normalizeText(s string) string {
	return norm.NFC.String(s)
}

func cloneStrokes(strokes []Stroke) []Stroke {
	if strokes == nil {
		return nil
	}
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}

func indexText(texts []TextOverlay, id TextID) int {
	return slices.IndexFunc(texts, func(t TextOverlay) bool { return t.ID == id })
}

package typeset

import (
	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/retouch/internal/cache"
)

// Extent is the size of a single line of text in pixels.
type Extent struct {
	// Width is the shaped advance of the line.
	Width float64
	// Height is the line height (ascent + descent).
	Height float64
	// Ascent is the distance from the top of the line box to the baseline.
	Ascent float64
}

type extentKey struct {
	family string
	text   string
	size   float64
}

// Measure shapes text in the given family at size pixels per em.
// An empty text has zero width but still reports the line height.
// Results are cached per resolved family.
func (l *Library) Measure(text, family string, size float64) Extent {
	f := l.Resolve(family)
	if f == nil || size <= 0 {
		return Extent{}
	}
	key := extentKey{family: f.Name, text: text, size: size}
	return l.extents.GetOrCreate(key, func() Extent {
		return l.shape(f, text, size)
	})
}

// CacheStats reports the measurement cache counters.
func (l *Library) CacheStats() cache.Stats {
	return l.extents.Stats()
}

func (l *Library) shape(f *Family, text string, size float64) Extent {

	runes := []rune(text)
	empty := len(runes) == 0
	if empty {
		// Shape a space so the line metrics are still reported.
		runes = []rune{' '}
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: direction(text),
		Face:      gtfont.NewFace(f.shape),
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := l.shapers.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	l.shapers.Put(hb)

	advance := out.Advance
	if advance < 0 {
		advance = -advance
	}
	if empty {
		advance = 0
	}
	return Extent{
		Width:  fixedToFloat(advance),
		Height: fixedToFloat(out.LineBounds.Ascent - out.LineBounds.Descent),
		Ascent: fixedToFloat(out.LineBounds.Ascent),
	}
}

// direction reports the base direction of the paragraph.
func direction(text string) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		if run.Direction() != bidi.RightToLeft {
			return di.DirectionLTR
		}
	}
	return di.DirectionRTL
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

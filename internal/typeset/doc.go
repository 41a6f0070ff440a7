// Package typeset measures and draws text overlays.
//
// A Library maps family names to parsed fonts. Each family is parsed twice:
// by go-text/typesetting for HarfBuzz shaping (measurement honors kerning
// and ligatures) and by golang.org/x/image/font/opentype for glyph
// rasterization. The default library ships the Go font families and maps
// common system family names onto them, so overlays created with names
// like "Helvetica" or "Georgia" render with a sensible substitute.
//
// Family lookup is case-insensitive. Unknown families fall back to the
// library default rather than failing.
package typeset

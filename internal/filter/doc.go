// Package filter implements the pixel kernels behind the editor's filter kinds.
//
// Kernels operate on origin-anchored, premultiplied *image.RGBA buffers and
// always write to a fresh destination; the source is read-only. Stages are
// chained into a Pipeline, which checks for cancellation between stages and
// fans per-pixel work out over row bands through a Runner.
//
// Available stages:
//   - Color matrix transformations (sepia, grayscale, invert, color controls, temperature)
//   - Gaussian blur (separable) and unsharp masking
//   - Tone curves (monotone cubic spline baked into a lookup table)
//   - Vibrance, monochrome tint and vignette
//
// Presets assembles these stages into the named looks of the editor
// (mono, sepia, fuji, polaroid and so on).
package filter

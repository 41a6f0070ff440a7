package filter

import (
	"fmt"
	"sort"
)

// neutralKelvin is the white point every temperature preset shifts from.
const neutralKelvin = 6500

var presets = map[string]func() *Pipeline{
	"mono": func() *Pipeline {
		return NewPipeline("mono", Grayscale().Then(Contrast(1.1)))
	},
	"sepia": func() *Pipeline {
		return NewPipeline("sepia", Sepia().Mix(0.7))
	},
	"vibrant": func() *Pipeline {
		return NewPipeline("vibrant", &Vibrance{Amount: 1.5})
	},
	"noir": func() *Pipeline {
		return NewPipeline("noir", Grayscale().Then(Contrast(1.35)).Then(Brightness(-0.05)))
	},
	"vintage": func() *Pipeline {
		return NewPipeline("vintage",
			Sepia().Mix(0.5),
			&Vignette{Intensity: 1.0, Radius: 1.5},
		)
	},
	"invert": func() *Pipeline {
		return NewPipeline("invert", Invert())
	},
	"blur": func() *Pipeline {
		return NewPipeline("blur", NewBlur(5))
	},
	"fuji": func() *Pipeline {
		return NewPipeline("fuji",
			Temperature(neutralKelvin, 5000),
			MustToneCurve(
				CurvePoint{0, 0}, CurvePoint{0.25, 0.18}, CurvePoint{0.5, 0.5},
				CurvePoint{0.75, 0.82}, CurvePoint{1, 1},
			),
		)
	},
	"kodak": func() *Pipeline {
		return NewPipeline("kodak",
			MustToneCurve(
				CurvePoint{0, 0.1}, CurvePoint{0.25, 0.3}, CurvePoint{0.5, 0.6},
				CurvePoint{0.75, 0.85}, CurvePoint{1, 1},
			),
			Temperature(neutralKelvin, 7500),
		)
	},
	"vsco": func() *Pipeline {
		return NewPipeline("vsco",
			&Unsharp{Radius: 2, Intensity: 1},
			Temperature(neutralKelvin, 6000),
			MustToneCurve(
				CurvePoint{0, 0.08}, CurvePoint{0.25, 0.28}, CurvePoint{0.5, 0.55},
				CurvePoint{0.75, 0.85}, CurvePoint{1, 1},
			),
		)
	},
	"portra": func() *Pipeline {
		return NewPipeline("portra",
			Temperature(neutralKelvin, 7000),
			MustToneCurve(
				CurvePoint{0, 0.05}, CurvePoint{0.25, 0.22}, CurvePoint{0.5, 0.55},
				CurvePoint{0.75, 0.85}, CurvePoint{1, 1},
			),
			&Monochrome{R: 1, G: 0.9, B: 0.95, Intensity: 0.08},
		)
	},
	"ektar": func() *Pipeline {
		return NewPipeline("ektar",
			ColorControls(1.5, 0.05, 1.2),
			Temperature(neutralKelvin, 6000),
		)
	},
	"polaroid": func() *Pipeline {
		return NewPipeline("polaroid",
			&Exposure{Stops: 0.2},
			MustToneCurve(
				CurvePoint{0, 0.12}, CurvePoint{0.25, 0.32}, CurvePoint{0.5, 0.6},
				CurvePoint{0.75, 0.85}, CurvePoint{1, 1},
			),
			&Monochrome{R: 0.8, G: 0.9, B: 1, Intensity: 0.12},
			&Vignette{Intensity: 0.7, Radius: 2.0},
		)
	},
}

// Preset returns a new pipeline for the named look.
func Preset(name string) (*Pipeline, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("filter: unknown preset %q", name)
	}
	return build(), nil
}

// PresetNames returns the names of all presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

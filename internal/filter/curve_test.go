package filter

import (
	"errors"
	"testing"
)

func TestNewToneCurveValidation(t *testing.T) {
	tests := []struct {
		name   string
		points []CurvePoint
	}{
		{"too few points", []CurvePoint{{0, 0}, {1, 1}}},
		{"duplicate x", []CurvePoint{{0, 0}, {0.5, 0.4}, {0.5, 0.6}, {1, 1}}},
		{"decreasing x", []CurvePoint{{0, 0}, {0.7, 0.4}, {0.3, 0.6}, {1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToneCurve(tt.points...)
			if !errors.Is(err, ErrInvalidCurve) {
				t.Errorf("NewToneCurve() error = %v, want ErrInvalidCurve", err)
			}
		})
	}
}

func TestToneCurveIdentity(t *testing.T) {
	c := MustToneCurve(CurvePoint{0, 0}, CurvePoint{0.5, 0.5}, CurvePoint{1, 1})
	for v := 0; v < 256; v++ {
		if got := c.Map(uint8(v)); absi(int(got)-v) > 1 {
			t.Errorf("Map(%d) = %d, want ~%d", v, got, v)
		}
	}
}

func TestToneCurvePassesThroughControlPoints(t *testing.T) {
	c := MustToneCurve(
		CurvePoint{0, 0.1}, CurvePoint{0.25, 0.3}, CurvePoint{0.5, 0.6},
		CurvePoint{0.75, 0.85}, CurvePoint{1, 1},
	)

	tests := []struct {
		in, want uint8
	}{
		{0, 26},
		{255, 255},
	}
	for _, tt := range tests {
		if got := c.Map(tt.in); absi(int(got)-int(tt.want)) > 1 {
			t.Errorf("Map(%d) = %d, want ~%d", tt.in, got, tt.want)
		}
	}
}

func TestToneCurveMonotone(t *testing.T) {
	c := MustToneCurve(
		CurvePoint{0, 0}, CurvePoint{0.25, 0.18}, CurvePoint{0.5, 0.5},
		CurvePoint{0.75, 0.82}, CurvePoint{1, 1},
	)
	for v := 1; v < 256; v++ {
		if c.Map(uint8(v)) < c.Map(uint8(v-1)) {
			t.Fatalf("curve decreases between %d and %d", v-1, v)
		}
	}
}

func TestMustToneCurvePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustToneCurve with one point did not panic")
		}
	}()
	MustToneCurve(CurvePoint{0, 0})
}

func TestToneCurveApply(t *testing.T) {
	c := MustToneCurve(CurvePoint{0, 0.2}, CurvePoint{0.5, 0.6}, CurvePoint{1, 1})
	dst := c.Apply(newFilled(2, 2, opaque(0, 0, 0)), Serial)

	got := dst.RGBAAt(1, 1)
	if absi(int(got.R)-51) > 1 || got.A != 255 {
		t.Errorf("black through lifted curve = %v, want R~51 A=255", got)
	}
}

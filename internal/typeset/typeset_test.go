package typeset

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-text/typesetting/di"
	"golang.org/x/image/font/gofont/goregular"
)

func TestNewLibraryFamilies(t *testing.T) {
	lib := NewLibrary()

	want := []string{FamilyGo, FamilyGoBold, FamilyGoItalic, FamilyGoMono}
	got := lib.Families()
	if len(got) != len(want) {
		t.Fatalf("Families() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Families()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if lib.DefaultFamily() != FamilyGo {
		t.Errorf("DefaultFamily() = %q, want %q", lib.DefaultFamily(), FamilyGo)
	}
}

func TestResolve(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		name string
		want string
	}{
		{"Go", FamilyGo},
		{"go mono", FamilyGoMono},
		{"Helvetica", FamilyGo},
		{"  georgia ", FamilyGoItalic},
		{"American Typewriter", FamilyGoMono},
		{"Comic Sans", FamilyGo},
		{"", FamilyGo},
	}
	for _, tt := range tests {
		if f := lib.Resolve(tt.name); f == nil || f.Name != tt.want {
			t.Errorf("Resolve(%q) = %v, want %q", tt.name, f, tt.want)
		}
	}
	if !lib.Has("Futura") || lib.Has("Comic Sans") {
		t.Error("Has() disagrees with registered aliases")
	}
}

func TestRegisterErrors(t *testing.T) {
	lib := NewEmptyLibrary()

	if err := lib.Register("", goregular.TTF); !errors.Is(err, ErrEmptyFamilyName) {
		t.Errorf("Register(empty name) = %v, want ErrEmptyFamilyName", err)
	}
	if err := lib.Register("x", nil); !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("Register(nil data) = %v, want ErrEmptyFontData", err)
	}

	var perr *ParseError
	if err := lib.Register("junk", []byte("not a font")); !errors.As(err, &perr) {
		t.Errorf("Register(junk) = %v, want *ParseError", err)
	}
	if err := lib.Alias("Arial", "Missing"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("Alias(unknown) = %v, want ErrUnknownFamily", err)
	}
}

func TestEmptyLibrary(t *testing.T) {
	lib := NewEmptyLibrary()
	if lib.Resolve("Go") != nil {
		t.Error("Resolve on empty library should be nil")
	}
	if ext := lib.Measure("hi", "Go", 12); ext != (Extent{}) {
		t.Errorf("Measure on empty library = %+v, want zero", ext)
	}

	if err := lib.Register("Mine", goregular.TTF); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if lib.DefaultFamily() != "Mine" {
		t.Errorf("first registered family should become default, got %q", lib.DefaultFamily())
	}
}

func TestMeasure(t *testing.T) {
	lib := Default()

	short := lib.Measure("Hi", "Go", 24)
	long := lib.Measure("Hello, world", "Go", 24)
	if short.Width <= 0 || long.Width <= short.Width {
		t.Errorf("widths short=%v long=%v, want 0 < short < long", short.Width, long.Width)
	}
	if short.Height <= 0 || short.Ascent <= 0 || short.Ascent > short.Height {
		t.Errorf("metrics = %+v, want 0 < ascent <= height", short)
	}

	bigger := lib.Measure("Hi", "Go", 48)
	if bigger.Width <= short.Width*1.5 {
		t.Errorf("doubling size: width %v -> %v, want about double", short.Width, bigger.Width)
	}

	empty := lib.Measure("", "Go", 24)
	if empty.Width != 0 || empty.Height <= 0 {
		t.Errorf("Measure(empty) = %+v, want zero width and a line height", empty)
	}
	if z := lib.Measure("Hi", "Go", 0); z != (Extent{}) {
		t.Errorf("Measure(size 0) = %+v, want zero", z)
	}
}

func TestMeasureMonoIsUniform(t *testing.T) {
	lib := Default()
	a := lib.Measure("iiii", FamilyGoMono, 20)
	b := lib.Measure("MMMM", FamilyGoMono, 20)
	if diff := a.Width - b.Width; diff > 0.5 || diff < -0.5 {
		t.Errorf("mono widths differ: %v vs %v", a.Width, b.Width)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		text string
		want di.Direction
	}{
		{"", di.DirectionLTR},
		{"hello", di.DirectionLTR},
		{"שלום", di.DirectionRTL},
		{"hello שלום", di.DirectionLTR},
	}
	for _, tt := range tests {
		if got := direction(tt.text); got != tt.want {
			t.Errorf("direction(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDraw(t *testing.T) {
	lib := Default()
	dst := image.NewRGBA(image.Rect(0, 0, 120, 40))
	black := image.NewUniform(color.Black)

	if err := lib.Draw(dst, "Hello", "Go", 24, 4, 4, black); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	painted := 0
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] > 0 {
			painted++
		}
	}
	if painted == 0 {
		t.Fatal("Draw() painted nothing")
	}

	// Nothing is drawn above the line box.
	for x := 0; x < 120; x++ {
		for y := 0; y < 3; y++ {
			if dst.RGBAAt(x, y).A != 0 {
				t.Fatalf("pixel (%d,%d) painted above the line box", x, y)
			}
		}
	}
}

func TestDrawNoop(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := Default().Draw(dst, "", "Go", 12, 0, 0, image.Black); err != nil {
		t.Errorf("Draw(empty) error = %v", err)
	}
	if err := NewEmptyLibrary().Draw(dst, "x", "Go", 12, 0, 0, image.Black); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("Draw on empty library = %v, want ErrUnknownFamily", err)
	}
}

func TestMeasureCached(t *testing.T) {
	lib := NewLibrary()
	first := lib.Measure("cached", "Helvetica", 18)
	second := lib.Measure("cached", FamilyGo, 18)
	if first != second {
		t.Errorf("Measure() = %+v, want %+v", second, first)
	}
	s := lib.CacheStats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("CacheStats() = %+v, want 1 hit and 1 miss", s)
	}

	if err := lib.Register("Extra", goregular.TTF); err != nil {
		t.Fatal(err)
	}
	if s := lib.CacheStats(); s.Len != 0 {
		t.Errorf("cache Len after Register = %d, want 0", s.Len)
	}
}

package typeset

import (
	"bytes"
	"sort"
	"strings"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/gogpu/retouch/internal/cache"
)

// extentCacheSize bounds the number of memoized measurements.
const extentCacheSize = 1024

// Family names registered by NewLibrary.
const (
	FamilyGo       = "Go"
	FamilyGoBold   = "Go Bold"
	FamilyGoItalic = "Go Italic"
	FamilyGoMono   = "Go Mono"
)

// systemAliases maps common platform font names to the bundled families.
var systemAliases = map[string]string{
	"Helvetica":           FamilyGo,
	"Helvetica Neue":      FamilyGo,
	"Arial":               FamilyGo,
	"Verdana":             FamilyGo,
	"Avenir":              FamilyGo,
	"Futura":              FamilyGoBold,
	"Georgia":             FamilyGoItalic,
	"Times New Roman":     FamilyGoItalic,
	"Didot":               FamilyGoItalic,
	"American Typewriter": FamilyGoMono,
	"Courier":             FamilyGoMono,
	"Menlo":               FamilyGoMono,
}

// Family is a parsed font usable for both shaping and rasterization.
// It is immutable and safe for concurrent use.
type Family struct {
	Name string

	// shaping side; *gtfont.Font is read-only and safe to share
	shape *gtfont.Font
	// rasterization side
	glyphs *opentype.Font
}

// Library is a registry of font families.
//
// Thread safety: Library is safe for concurrent use.
type Library struct {
	mu       sync.RWMutex
	families map[string]*Family // keyed by lower-case name
	aliases  map[string]string  // lower-case alias -> lower-case family
	def      string

	// HarfbuzzShaper keeps internal buffers and is not safe for
	// concurrent use, so instances are pooled.
	shapers sync.Pool

	// extents memoizes Measure; cleared when the registry changes.
	extents *cache.Cache[extentKey, Extent]
}

// NewLibrary returns a library holding the Go font families and the
// system-name aliases. The default family is "Go".
func NewLibrary() *Library {
	l := NewEmptyLibrary()
	bundled := []struct {
		name string
		ttf  []byte
	}{
		{FamilyGo, goregular.TTF},
		{FamilyGoBold, gobold.TTF},
		{FamilyGoItalic, goitalic.TTF},
		{FamilyGoMono, gomono.TTF},
	}
	for _, b := range bundled {
		// Bundled fonts are known-good.
		if err := l.Register(b.name, b.ttf); err != nil {
			panic(err)
		}
	}
	for alias, family := range systemAliases {
		_ = l.Alias(alias, family)
	}
	l.def = strings.ToLower(FamilyGo)
	return l
}

// NewEmptyLibrary returns a library without any family. The first
// registered family becomes the default.
func NewEmptyLibrary() *Library {
	return &Library{
		families: make(map[string]*Family),
		aliases:  make(map[string]string),
		shapers: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		extents: cache.New[extentKey, Extent](extentCacheSize),
	}
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the shared library created by NewLibrary.
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLib = NewLibrary()
	})
	return defaultLib
}

// Register parses ttf (TrueType or OpenType) and adds it under name,
// replacing any family or alias of the same name.
func (l *Library) Register(name string, ttf []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyFamilyName
	}
	if len(ttf) == 0 {
		return ErrEmptyFontData
	}

	face, err := gtfont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return &ParseError{Family: name, Err: err}
	}
	glyphs, err := opentype.Parse(ttf)
	if err != nil {
		return &ParseError{Family: name, Err: err}
	}

	key := strings.ToLower(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.families[key] = &Family{Name: name, shape: face.Font, glyphs: glyphs}
	delete(l.aliases, key)
	if l.def == "" {
		l.def = key
	}
	l.extents.Clear()
	return nil
}

// Alias makes alias resolve to an already registered family.
func (l *Library) Alias(alias, family string) error {
	a := strings.ToLower(strings.TrimSpace(alias))
	f := strings.ToLower(strings.TrimSpace(family))
	if a == "" {
		return ErrEmptyFamilyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.families[f]; !ok {
		return ErrUnknownFamily
	}
	l.aliases[a] = f
	l.extents.Clear()
	return nil
}

// Has reports whether name is a registered family or alias.
func (l *Library) Has(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.families[key]; ok {
		return true
	}
	_, ok := l.aliases[key]
	return ok
}

// Resolve returns the family for name, following aliases.
// Unknown or empty names resolve to the default family; Resolve returns
// nil only for a library with no families.
func (l *Library) Resolve(name string) *Family {
	key := strings.ToLower(strings.TrimSpace(name))
	l.mu.RLock()
	defer l.mu.RUnlock()
	if f, ok := l.families[key]; ok {
		return f
	}
	if target, ok := l.aliases[key]; ok {
		if f, ok := l.families[target]; ok {
			return f
		}
	}
	return l.families[l.def]
}

// DefaultFamily returns the name of the default family, or "" if empty.
func (l *Library) DefaultFamily() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if f, ok := l.families[l.def]; ok {
		return f.Name
	}
	return ""
}

// Families returns the registered family names, sorted.
func (l *Library) Families() []string {
	l.mu.RLock()
	names := make([]string, 0, len(l.families))
	for _, f := range l.families {
		names = append(names, f.Name)
	}
	l.mu.RUnlock()
	sort.Strings(names)
	return names
}

package retouch

import (
	"fmt"
	"strings"
)

// FilterKind selects one of the built-in looks. FilterNone is the identity.
type FilterKind int

// Filter kinds, in the order they are offered to the user.
const (
	FilterNone FilterKind = iota
	FilterMono
	FilterSepia
	FilterVibrant
	FilterNoir
	FilterVintage
	FilterInvert
	FilterBlur
	FilterFuji
	FilterKodak
	FilterVSCO
	FilterPortra
	FilterEktar
	FilterPolaroid

	filterKindCount
)

var filterNames = [filterKindCount]string{
	"none", "mono", "sepia", "vibrant", "noir", "vintage", "invert",
	"blur", "fuji", "kodak", "vsco", "portra", "ektar", "polaroid",
}

var filterLabels = [filterKindCount]string{
	"Original", "Mono", "Sepia", "Vibrant", "Noir", "Vintage", "Invert",
	"Blur", "Fuji", "Kodak", "VSCO", "Portra", "Ektar", "Polaroid",
}

// String returns the lower-case name of the kind, e.g. "sepia".
func (k FilterKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
	return filterNames[k]
}

// DisplayName returns the label shown to users, e.g. "Original" for FilterNone.
func (k FilterKind) DisplayName() string {
	if !k.valid() {
		return k.String()
	}
	return filterLabels[k]
}

func (k FilterKind) valid() bool {
	return k >= 0 && k < filterKindCount
}

// ParseFilterKind parses a filter name case-insensitively. The empty string
// and "original" both mean FilterNone.
func ParseFilterKind(s string) (FilterKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "original":
		return FilterNone, nil
	}
	for i, n := range filterNames {
		if n == name {
			return FilterKind(i), nil
		}
	}
	return FilterNone, fmt.Errorf("%w: unknown filter %q", ErrFilterUnsupported, s)
}

// AllFilterKinds returns every kind in display order.
func AllFilterKinds() []FilterKind {
	kinds := make([]FilterKind, filterKindCount)
	for i := range kinds {
		kinds[i] = FilterKind(i)
	}
	return kinds
}

// MarshalText implements encoding.TextMarshaler.
func (k FilterKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrFilterUnsupported, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FilterKind) UnmarshalText(text []byte) error {
	parsed, err := ParseFilterKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

package typeset

import "errors"

// Sentinel errors for the typeset package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("typeset: empty font data")

	// ErrEmptyFamilyName is returned when registering a family without a name.
	ErrEmptyFamilyName = errors.New("typeset: empty family name")

	// ErrUnknownFamily is returned when an alias targets a family that was
	// never registered.
	ErrUnknownFamily = errors.New("typeset: unknown family")
)

// ParseError is returned when font data cannot be parsed.
type ParseError struct {
	Family string
	Err    error
}

func (e *ParseError) Error() string {
	return "typeset: parse family " + e.Family + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

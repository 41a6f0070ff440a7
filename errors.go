package retouch

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is; the typed errors below wrap
// them with context.
var (
	// ErrFilterUnsupported is returned when no kernel is registered for a filter kind.
	ErrFilterUnsupported = errors.New("retouch: filter unsupported")

	// ErrFilterProcessingFailed is returned when a filter kernel cannot produce output.
	ErrFilterProcessingFailed = errors.New("retouch: filter processing failed")

	// ErrOverlayNotFound is returned when a text overlay id does not exist.
	ErrOverlayNotFound = errors.New("retouch: overlay not found")

	// ErrNoImageLoaded is returned when a mutation is attempted on an empty session.
	ErrNoImageLoaded = errors.New("retouch: no image loaded")

	// ErrNilImage is returned when a nil or empty image is supplied.
	ErrNilImage = errors.New("retouch: nil or empty image")

	// ErrEmptyText is returned when a text overlay would have no text.
	ErrEmptyText = errors.New("retouch: empty text")

	// ErrInvalidTransform is returned when a transform would leave the scale
	// non-positive or any component non-finite.
	ErrInvalidTransform = errors.New("retouch: invalid transform")

	// ErrInvalidPosition is returned for a non-finite point.
	ErrInvalidPosition = errors.New("retouch: invalid position")

	// ErrInvalidDimensions is returned for non-positive image or thumbnail sizes.
	ErrInvalidDimensions = errors.New("retouch: invalid dimensions")

	// ErrInvalidColor is returned when a color string cannot be parsed.
	ErrInvalidColor = errors.New("retouch: invalid color")
)

// FilterError reports a failed filter application.
// Reason is ErrFilterUnsupported or ErrFilterProcessingFailed.
type FilterError struct {
	Filter FilterKind
	Reason error
	Cause  error
}

func (e *FilterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Reason, e.Filter, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Reason, e.Filter)
}

// Unwrap exposes both the reason sentinel and the underlying cause.
func (e *FilterError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Reason, e.Cause}
	}
	return []error{e.Reason}
}

// OverlayError reports an operation on a missing text overlay.
type OverlayError struct {
	Op string
	ID TextID
}

func (e *OverlayError) Error() string {
	return fmt.Sprintf("retouch: %s text %d: overlay not found", e.Op, e.ID)
}

// Is reports whether target is ErrOverlayNotFound.
func (e *OverlayError) Is(target error) bool {
	return target == ErrOverlayNotFound
}

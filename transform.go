package retouch

import (
	"fmt"
	"image"
	"sync"
)

// TransformState is the geometric transform applied to the composited image
// at render time. It rotates and scales about the image center, then
// translates.
type TransformState struct {
	Scale       float64 `json:"scale"`
	Rotation    float64 `json:"rotation"` // radians
	Translation Point   `json:"translation"`
}

// DefaultTransform returns the identity transform.
func DefaultTransform() TransformState {
	return TransformState{Scale: 1}
}

// IsIdentity reports whether t leaves the image unchanged.
func (t TransformState) IsIdentity() bool {
	return t.Scale == 1 && t.Rotation == 0 && t.Translation == (Point{})
}

// Valid reports whether the scale is positive and every component is finite.
func (t TransformState) Valid() bool {
	return t.Scale > 0 && isFinite(t.Scale) && isFinite(t.Rotation) && t.Translation.IsFinite()
}

// Matrix returns the affine map from source to destination pixels for an
// image of the given size.
func (t TransformState) Matrix(size image.Point) Matrix {
	cx, cy := float64(size.X)/2, float64(size.Y)/2
	return Translate(cx+t.Translation.X, cy+t.Translation.Y).
		Multiply(Rotate(t.Rotation)).
		Multiply(Scale(t.Scale)).
		Multiply(Translate(-cx, -cy))
}

// TransformDelta is a change produced by a gesture. Scale multiplies the
// current scale; Rotation and Translation add. Nil fields are unchanged.
type TransformDelta struct {
	Scale       *float64
	Rotation    *float64
	Translation *Point
}

// IsEmpty reports whether the delta changes nothing.
func (d TransformDelta) IsEmpty() bool {
	return d.Scale == nil && d.Rotation == nil && d.Translation == nil
}

// Apply folds d into t. It fails with ErrInvalidTransform when the result
// would have a non-positive scale or a non-finite component.
func (t TransformState) Apply(d TransformDelta) (TransformState, error) {
	out := t
	if d.Scale != nil {
		out.Scale *= *d.Scale
	}
	if d.Rotation != nil {
		out.Rotation += *d.Rotation
	}
	if d.Translation != nil {
		out.Translation = out.Translation.Add(*d.Translation)
	}
	if !out.Valid() {
		return t, fmt.Errorf("%w: scale=%v rotation=%v translation=%v",
			ErrInvalidTransform, out.Scale, out.Rotation, out.Translation)
	}
	return out, nil
}

// Gesture tracks an in-progress transform interaction.
//
// The delta held by a gesture is ephemeral: it shows up in Preview but is not
// part of the session's committed state until Commit folds it in.
type Gesture struct {
	s *Session

	mu    sync.Mutex
	delta TransformDelta
	done  bool
}

// Update replaces the in-progress delta. Deltas are cumulative since the
// start of the gesture, as reported by pinch and rotate recognizers.
func (g *Gesture) Update(d TransformDelta) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		g.delta = d
	}
}

// Preview returns the committed transform with the in-progress delta applied.
// An invalid delta previews the committed transform.
func (g *Gesture) Preview() TransformState {
	g.mu.Lock()
	d := g.delta
	g.mu.Unlock()

	base := g.s.Transform()
	out, err := base.Apply(d)
	if err != nil {
		return base
	}
	return out
}

// Commit folds the delta into the session through SetTransform and ends the
// gesture. Committing an ended gesture does nothing.
func (g *Gesture) Commit() error {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return nil
	}
	g.done = true
	d := g.delta
	g.mu.Unlock()

	if d.IsEmpty() {
		return nil
	}
	return g.s.SetTransform(d)
}

// Cancel ends the gesture without changing the session.
func (g *Gesture) Cancel() {
	g.mu.Lock()
	g.done = true
	g.delta = TransformDelta{}
	g.mu.Unlock()
}

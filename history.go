package retouch

import (
	"slices"
)

// DefaultHistoryLimit is the number of snapshots a History keeps by default.
const DefaultHistoryLimit = 50

// Snapshot is an immutable capture of the edit state.
//
// Image buffers are shared between snapshots; overlay slices are copies owned
// by the snapshot. Callers must not modify the slices of a snapshot they
// obtain from a History.
type Snapshot struct {
	// Seq increases by one for every snapshot created by a session.
	Seq uint64
	// Reason names the operation that produced the snapshot, e.g. "stroke".
	Reason string

	// Filtered is the source image with the filter applied.
	Filtered *ImageBuffer
	// Preview is the composited result of all the fields below.
	Preview *ImageBuffer

	Strokes   []Stroke
	Texts     []TextOverlay
	Filter    FilterKind
	Transform TransformState
}

// EqualFunc decides whether a new snapshot is observably the same as the
// current one, in which case the commit is skipped.
type EqualFunc func(a, b *Snapshot) bool

// CoarseEqual compares the filter kind, the transform values and the number
// of strokes and text overlays. It does not look at overlay content, so an
// edit that moves or restyles an overlay without changing the counts is
// treated as a no-op.
func CoarseEqual(a, b *Snapshot) bool {
	return a.Filter == b.Filter &&
		a.Transform == b.Transform &&
		len(a.Strokes) == len(b.Strokes) &&
		len(a.Texts) == len(b.Texts)
}

// StrictEqual compares the filter kind, the transform and every stroke and
// text overlay field by field.
func StrictEqual(a, b *Snapshot) bool {
	return a.Filter == b.Filter &&
		a.Transform == b.Transform &&
		slices.EqualFunc(a.Strokes, b.Strokes, Stroke.Equal) &&
		slices.Equal(a.Texts, b.Texts)
}

// History is a bounded linear undo/redo log.
//
// The cursor always indexes a snapshot when the history is non-empty.
// Pushing while the cursor is not at the tail discards every snapshot after
// the cursor. When the limit is exceeded the oldest snapshot is dropped.
//
// History is not safe for concurrent use; Session guards it.
type History struct {
	entries []*Snapshot
	cursor  int
	limit   int
	equal   EqualFunc
}

// NewHistory creates an empty history. A limit below 1 uses
// DefaultHistoryLimit; a nil equal uses CoarseEqual.
func NewHistory(limit int, equal EqualFunc) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if equal == nil {
		equal = CoarseEqual
	}
	return &History{limit: limit, equal: equal, cursor: -1}
}

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the index of the current snapshot, or -1 when empty.
func (h *History) Cursor() int { return h.cursor }

// Limit returns the maximum number of snapshots kept.
func (h *History) Limit() int { return h.limit }

// Current returns the snapshot at the cursor, or nil when empty.
func (h *History) Current() *Snapshot {
	if h.cursor < 0 {
		return nil
	}
	return h.entries[h.cursor]
}

// At returns the snapshot at index i.
func (h *History) At(i int) *Snapshot {
	return h.entries[i]
}

// CanUndo reports whether Undo would move the cursor.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Reset replaces the history with the single snapshot s.
func (h *History) Reset(s *Snapshot) {
	clear(h.entries)
	h.entries = append(h.entries[:0], s)
	h.cursor = 0
}

// Clear removes every snapshot.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.cursor = -1
}

// Commit appends s after the cursor unless it equals the current snapshot.
// It reports whether s was appended.
func (h *History) Commit(s *Snapshot) bool {
	if cur := h.Current(); cur != nil && h.equal(cur, s) {
		return false
	}

	// Drop the redo branch.
	tail := h.entries[h.cursor+1:]
	clear(tail)
	h.entries = append(h.entries[:h.cursor+1], s)
	h.cursor = len(h.entries) - 1

	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = slices.Delete(h.entries, 0, over)
		h.cursor -= over
	}
	return true
}

// Undo moves the cursor back and returns the new current snapshot.
// It returns nil when there is nothing to undo.
func (h *History) Undo() *Snapshot {
	if !h.CanUndo() {
		return nil
	}
	h.cursor--
	return h.entries[h.cursor]
}

// Redo moves the cursor forward and returns the new current snapshot.
// It returns nil when there is nothing to redo.
func (h *History) Redo() *Snapshot {
	if !h.CanRedo() {
		return nil
	}
	h.cursor++
	return h.entries[h.cursor]
}

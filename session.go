package retouch

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/retouch/internal/typeset"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateEmpty means no source image is loaded.
	StateEmpty State = iota
	// StateReady means a source image is loaded and edits are accepted.
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "empty"
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	engine       *FilterEngine
	compositor   *Compositor
	historyLimit int
	equal        EqualFunc
	maxDimension int
	strokeColor  RGBA
	strokeWidth  float64
	fonts        []fontFile
}

type fontFile struct {
	name string
	ttf  []byte
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		historyLimit: DefaultHistoryLimit,
		equal:        CoarseEqual,
		strokeColor:  Black,
		strokeWidth:  DefaultStrokeWidth,
	}
}

// WithEngine shares an existing filter engine. The session does not close it.
func WithEngine(e *FilterEngine) Option {
	return func(o *sessionOptions) {
		o.engine = e
	}
}

// WithCompositor sets the compositor used for previews and exports.
func WithCompositor(c *Compositor) Option {
	return func(o *sessionOptions) {
		o.compositor = c
	}
}

// WithHistoryLimit bounds the number of undo snapshots.
func WithHistoryLimit(n int) Option {
	return func(o *sessionOptions) {
		o.historyLimit = n
	}
}

// WithHistoryEquality sets the function deciding whether a commit is a
// no-op. The default is CoarseEqual.
func WithHistoryEquality(eq EqualFunc) Option {
	return func(o *sessionOptions) {
		if eq != nil {
			o.equal = eq
		}
	}
}

// WithMaxDimension downsizes loaded images so that neither side exceeds n.
// Zero disables downsizing.
func WithMaxDimension(n int) Option {
	return func(o *sessionOptions) {
		o.maxDimension = n
	}
}

// WithStrokeStyle sets the color and width used when AddStroke is given a
// zero color or a non-positive width.
func WithStrokeStyle(c RGBA, width float64) Option {
	return func(o *sessionOptions) {
		o.strokeColor = c
		if width > 0 {
			o.strokeWidth = width
		}
	}
}

// WithFont registers a TrueType or OpenType font under name, in addition to
// the bundled families.
func WithFont(name string, ttf []byte) Option {
	return func(o *sessionOptions) {
		o.fonts = append(o.fonts, fontFile{name: name, ttf: ttf})
	}
}

// Session is a non-destructive editing session over one source image.
//
// A session holds the source image, the selected filter, the stroke and text
// overlays, the transform and a linear undo history. Every successful
// mutation recomposites the preview and commits a snapshot to the history.
//
// Mutations are meant to be issued from a single control goroutine. The
// session is internally locked so that background filter completions and
// readers do not race with it.
type Session struct {
	opts       sessionOptions
	engine     *FilterEngine
	ownsEngine bool
	comp       *Compositor
	events     emitter

	mu        sync.Mutex
	state     State
	source    *ImageBuffer
	filtered  *ImageBuffer
	preview   *ImageBuffer
	filter    FilterKind
	strokes   []Stroke
	current   Stroke
	texts     []TextOverlay
	transform TransformState
	history   *History
	seq       uint64
	lastText  TextID
	token     uint64
}

// NewSession creates an empty session.
func NewSession(opts ...Option) (*Session, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		opts:      o,
		engine:    o.engine,
		comp:      o.compositor,
		history:   NewHistory(o.historyLimit, o.equal),
		transform: DefaultTransform(),
	}
	if s.engine == nil {
		s.engine = NewFilterEngine()
		s.ownsEngine = true
	}
	if s.comp == nil {
		if len(o.fonts) == 0 {
			s.comp = NewCompositor()
		} else {
			lib := typeset.NewLibrary()
			for _, f := range o.fonts {
				if err := lib.Register(f.name, f.ttf); err != nil {
					s.Close()
					return nil, fmt.Errorf("retouch: font %q: %w", f.name, err)
				}
			}
			s.comp = newCompositorWithFonts(lib)
		}
	}
	s.current = Stroke{Color: o.strokeColor, Width: o.strokeWidth}
	return s, nil
}

// Close releases the filter engine if the session created it.
// In-flight filter results are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.token++
	s.mu.Unlock()
	if s.ownsEngine {
		s.engine.Close()
	}
}

// On registers fn for events of type t and returns a function that removes it.
func (s *Session) On(t EventType, fn Listener) (off func()) {
	return s.events.on(t, fn)
}

// Compositor returns the compositor used by the session.
func (s *Session) Compositor() *Compositor { return s.comp }

// Engine returns the filter engine used by the session.
func (s *Session) Engine() *FilterEngine { return s.engine }

// LoadImage replaces the source image and starts a new edit history.
//
// Overlays, filter and transform are reset to their defaults and the history
// holds a single snapshot. In-flight filter requests are superseded.
func (s *Session) LoadImage(img *ImageBuffer) error {
	if img == nil {
		return ErrNilImage
	}
	img = img.Fit(s.opts.maxDimension)

	s.mu.Lock()
	s.token++
	s.state = StateReady
	s.source = img
	s.filtered = img
	s.filter = FilterNone
	s.strokes = nil
	s.current = Stroke{Color: s.current.Color, Width: s.current.Width}
	s.texts = nil
	s.transform = DefaultTransform()

	s.preview = s.comp.Render(s.filtered, nil, nil, s.transform)
	s.history.Reset(s.snapshotLocked("load"))
	events := []Event{s.eventLocked(EventPreviewChanged), s.eventLocked(EventHistoryChanged)}
	s.mu.Unlock()

	Logger().Info("retouch: image loaded", "size", img.Size(), "colorspace", img.ColorSpace())
	s.events.emit(events...)
	return nil
}

// Reset discards the image, the overlays and the history and returns the
// session to the empty state. In-flight filter requests are superseded.
func (s *Session) Reset() {
	s.mu.Lock()
	s.token++
	s.state = StateEmpty
	s.source, s.filtered, s.preview = nil, nil, nil
	s.filter = FilterNone
	s.strokes = nil
	s.current = Stroke{Color: s.current.Color, Width: s.current.Width}
	s.texts = nil
	s.transform = DefaultTransform()
	s.history.Clear()
	events := []Event{s.eventLocked(EventReset), s.eventLocked(EventHistoryChanged)}
	s.mu.Unlock()

	Logger().Info("retouch: session reset")
	s.events.emit(events...)
}

// AddStroke appends points to the stroke in progress and sets its style.
// A zero color or a non-positive width uses the session defaults. The stroke
// is not part of the edit state until EndStroke.
func (s *Session) AddStroke(points []Point, color RGBA, width float64) error {
	for _, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, p)
		}
	}
	if color == (RGBA{}) {
		color = s.opts.strokeColor
	}
	if !(width > 0) {
		width = s.opts.strokeWidth
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEmpty {
		return ErrNoImageLoaded
	}
	s.current.Points = append(s.current.Points, points...)
	s.current.Color = color
	s.current.Width = width
	return nil
}

// CurrentStroke returns a copy of the stroke in progress.
func (s *Session) CurrentStroke() Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// EndStroke commits the stroke in progress and starts a new empty one with
// the same style. It reports whether a stroke was committed; an empty stroke
// is discarded without touching the history.
func (s *Session) EndStroke() (bool, error) {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return false, ErrNoImageLoaded
	}
	if len(s.current.Points) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.strokes = append(s.strokes, s.current)
	s.current = Stroke{Color: s.current.Color, Width: s.current.Width}
	events := s.commitLocked("stroke")
	s.mu.Unlock()

	s.events.emit(events...)
	return true, nil
}

// CommitStroke adds a complete stroke in one step. The stroke in progress is
// left alone, so concurrent callers never merge their points. Defaults apply
// as in AddStroke. It reports false for an empty point list.
func (s *Session) CommitStroke(points []Point, color RGBA, width float64) (bool, error) {
	for _, p := range points {
		if !p.IsFinite() {
			return false, fmt.Errorf("%w: %v", ErrInvalidPosition, p)
		}
	}
	if color == (RGBA{}) {
		color = s.opts.strokeColor
	}
	if !(width > 0) {
		width = s.opts.strokeWidth
	}

	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return false, ErrNoImageLoaded
	}
	if len(points) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	stroke := Stroke{Points: slices.Clone(points), Color: color, Width: width}
	s.strokes = append(s.strokes, stroke)
	events := s.commitLocked("stroke")
	s.mu.Unlock()

	s.events.emit(events...)
	return true, nil
}

// ClearStrokes removes every committed stroke and the stroke in progress.
func (s *Session) ClearStrokes() error {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return ErrNoImageLoaded
	}
	s.current.Points = nil
	if len(s.strokes) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.strokes = nil
	events := s.commitLocked("strokes.clear")
	s.mu.Unlock()

	s.events.emit(events...)
	return nil
}

// AddText adds a text overlay centered on the image and returns its id.
// A zero font size uses DefaultFontSize; an empty family uses the default
// family.
func (s *Session) AddText(text string, font FontDescriptor, color RGBA) (TextID, error) {
	return s.addText(text, font, color, nil)
}

// AddTextAt adds a text overlay with its top-left corner at pos.
func (s *Session) AddTextAt(text string, font FontDescriptor, color RGBA, pos Point) (TextID, error) {
	if !pos.IsFinite() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPosition, pos)
	}
	return s.addText(text, font, color, &pos)
}

func (s *Session) addText(text string, font FontDescriptor, color RGBA, pos *Point) (TextID, error) {
	text = normalizeText(text)
	if text == "" {
		return 0, ErrEmptyText
	}
	font = font.withDefaults()

	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return 0, ErrNoImageLoaded
	}
	t := TextOverlay{Text: text, Font: font, Color: color}
	if pos != nil {
		t.Position = *pos
	} else {
		t.Position = s.centeredLocked(t)
	}
	s.lastText++
	t.ID = s.lastText
	s.texts = append(s.texts, t)
	events := s.commitLocked("text.add")
	s.mu.Unlock()

	s.events.emit(events...)
	return t.ID, nil
}

// centeredLocked returns the position that centers t's box on the image.
func (s *Session) centeredLocked(t TextOverlay) Point {
	box := s.comp.TextBox(t)
	size := s.source.Size()
	return Pt(
		(float64(size.X)-float64(box.Dx()))/2,
		(float64(size.Y)-float64(box.Dy()))/2,
	)
}

// UpdateText changes the fields of the overlay id that are set in u.
// An unknown id returns an *OverlayError and changes nothing.
func (s *Session) UpdateText(id TextID, u TextUpdate) error {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return ErrNoImageLoaded
	}
	i := indexText(s.texts, id)
	if i < 0 {
		s.mu.Unlock()
		return &OverlayError{Op: "update", ID: id}
	}
	updated, err := u.apply(s.texts[i])
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if updated == s.texts[i] {
		s.mu.Unlock()
		return nil
	}
	s.texts = slices.Clone(s.texts)
	s.texts[i] = updated
	events := s.commitLocked("text.update")
	s.mu.Unlock()

	s.events.emit(events...)
	return nil
}

// RemoveText deletes the overlay id. An unknown id returns an *OverlayError
// and changes nothing. Removed ids are never reused.
func (s *Session) RemoveText(id TextID) error {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return ErrNoImageLoaded
	}
	i := indexText(s.texts, id)
	if i < 0 {
		s.mu.Unlock()
		return &OverlayError{Op: "remove", ID: id}
	}
	s.texts = slices.Delete(slices.Clone(s.texts), i, i+1)
	events := s.commitLocked("text.remove")
	s.mu.Unlock()

	s.events.emit(events...)
	return nil
}

// SetTransform folds a gesture delta into the committed transform.
// An invalid result fails with ErrInvalidTransform and changes nothing.
func (s *Session) SetTransform(d TransformDelta) error {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return ErrNoImageLoaded
	}
	next, err := s.transform.Apply(d)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == s.transform {
		s.mu.Unlock()
		return nil
	}
	s.transform = next
	events := s.commitLocked("transform")
	s.mu.Unlock()

	s.events.emit(events...)
	return nil
}

// BeginGesture starts an interactive transform. The gesture changes nothing
// until it is committed.
func (s *Session) BeginGesture() (*Gesture, error) {
	if s.State() == StateEmpty {
		return nil, ErrNoImageLoaded
	}
	return &Gesture{s: s}, nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo. The stroke in progress is discarded.
func (s *Session) Undo() bool {
	s.mu.Lock()
	snap := s.history.Undo()
	if snap == nil {
		s.mu.Unlock()
		return false
	}
	s.restoreLocked(snap)
	events := []Event{s.eventLocked(EventPreviewChanged), s.eventLocked(EventHistoryChanged)}
	s.mu.Unlock()

	s.events.emit(events...)
	return true
}

// Redo reapplies the snapshot after the cursor. It reports false when there
// is nothing to redo.
//
// Redo restores snapshots, not live edits. Under CoarseEqual an edit that
// keeps every overlay count, such as moving a text, commits no snapshot, so
// undo then redo brings back the position of the last committed snapshot.
// Use WithHistoryEquality(StrictEqual) to record such edits.
func (s *Session) Redo() bool {
	s.mu.Lock()
	snap := s.history.Redo()
	if snap == nil {
		s.mu.Unlock()
		return false
	}
	s.restoreLocked(snap)
	events := []Event{s.eventLocked(EventPreviewChanged), s.eventLocked(EventHistoryChanged)}
	s.mu.Unlock()

	s.events.emit(events...)
	return true
}

// ExportFlattened renders the current edit state into a new image.
func (s *Session) ExportFlattened() (*ImageBuffer, error) {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return nil, ErrNoImageLoaded
	}
	filtered, strokes, texts, t := s.filtered, s.strokes, s.texts, s.transform
	s.mu.Unlock()

	// Overlay slices are replaced, never modified in place, so they can be
	// rendered outside the lock.
	return s.comp.Render(filtered, strokes, texts, t), nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Source returns the loaded source image, or nil.
func (s *Session) Source() *ImageBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Preview returns the current composited preview, or nil when empty.
func (s *Session) Preview() *ImageBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// CanUndo reports whether Undo would change the state.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the state.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Filter returns the active filter.
func (s *Session) Filter() FilterKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Transform returns the committed transform.
func (s *Session) Transform() TransformState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Strokes returns a copy of the committed strokes.
func (s *Session) Strokes() []Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrokes(s.strokes)
}

// Texts returns a copy of the text overlays in draw order.
func (s *Session) Texts() []TextOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.texts)
}

// Text returns the overlay id.
func (s *Session) Text(id TextID) (TextOverlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexText(s.texts, id)
	if i < 0 {
		return TextOverlay{}, &OverlayError{Op: "get", ID: id}
	}
	return s.texts[i], nil
}

// HistoryLen returns the number of snapshots in the history.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// HistoryCursor returns the index of the current snapshot, or -1 when empty.
func (s *Session) HistoryCursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Cursor()
}

// Snapshot returns the snapshot at the history cursor, or nil when empty.
// The snapshot must not be modified.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// commitLocked recomposites the preview from the live state and commits a
// snapshot. It returns the events to emit once the lock is released.
func (s *Session) commitLocked(reason string) []Event {
	s.preview = s.comp.Render(s.filtered, s.strokes, s.texts, s.transform)
	snap := s.snapshotLocked(reason)

	events := []Event{s.eventLocked(EventPreviewChanged)}
	if s.history.Commit(snap) {
		events = append(events, s.eventLocked(EventHistoryChanged))
	} else {
		Logger().Debug("retouch: commit skipped", "reason", reason, "cursor", s.history.Cursor())
	}
	return events
}

func (s *Session) snapshotLocked(reason string) *Snapshot {
	s.seq++
	return &Snapshot{
		Seq:       s.seq,
		Reason:    reason,
		Filtered:  s.filtered,
		Preview:   s.preview,
		Strokes:   cloneStrokes(s.strokes),
		Texts:     slices.Clone(s.texts),
		Filter:    s.filter,
		Transform: s.transform,
	}
}

// restoreLocked makes snap the live state.
func (s *Session) restoreLocked(snap *Snapshot) {
	s.filtered = snap.Filtered
	s.preview = snap.Preview
	s.filter = snap.Filter
	s.transform = snap.Transform
	s.strokes = cloneStrokes(snap.Strokes)
	s.texts = slices.Clone(snap.Texts)
	s.current.Points = nil
}

func (s *Session) eventLocked(t EventType) Event {
	return Event{
		Type:    t,
		Preview: s.preview,
		Filter:  s.filter,
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
}

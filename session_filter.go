package retouch

import (
	"context"
)

// FilterOutcome reports how a filter request ended.
type FilterOutcome int

const (
	// FilterPending means the request has not completed yet.
	FilterPending FilterOutcome = iota
	// FilterApplied means the result became the session's filtered image.
	FilterApplied
	// FilterSuperseded means a newer request, a new image or a reset made
	// the result stale, so it was dropped.
	FilterSuperseded
	// FilterFailed means the filter could not be applied; the session kept
	// its previous state.
	FilterFailed
)

func (o FilterOutcome) String() string {
	switch o {
	case FilterPending:
		return "pending"
	case FilterApplied:
		return "applied"
	case FilterSuperseded:
		return "superseded"
	case FilterFailed:
		return "failed"
	}
	return "unknown"
}

// FilterTask tracks one ApplyFilter request.
type FilterTask struct {
	token uint64
	kind  FilterKind
	done  chan struct{}

	// written once before done is closed
	outcome FilterOutcome
	err     error
}

func newFilterTask(token uint64, kind FilterKind) *FilterTask {
	return &FilterTask{token: token, kind: kind, done: make(chan struct{})}
}

// Token returns the request token. Later requests have larger tokens.
func (t *FilterTask) Token() uint64 { return t.token }

// Kind returns the requested filter.
func (t *FilterTask) Kind() FilterKind { return t.kind }

// Done is closed once the outcome is known and listeners have run.
func (t *FilterTask) Done() <-chan struct{} { return t.done }

// Outcome returns the outcome, or FilterPending before Done is closed.
func (t *FilterTask) Outcome() FilterOutcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return FilterPending
	}
}

// Wait blocks until the request completes or ctx is done. For FilterFailed
// the error is the *FilterError; if ctx ends first, Wait returns
// FilterPending and ctx.Err().
func (t *FilterTask) Wait(ctx context.Context) (FilterOutcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return FilterPending, ctx.Err()
	}
}

func (t *FilterTask) finish(outcome FilterOutcome, err error) {
	t.outcome = outcome
	t.err = err
	close(t.done)
}

// ApplyFilter requests kind to be applied to the loaded source image.
//
// Validation happens synchronously: an empty session fails with
// ErrNoImageLoaded and an unregistered kind with ErrFilterUnsupported. The
// pixel work then runs in the background and ApplyFilter returns at once.
//
// Each call issues a new request token. When the work finishes its result is
// committed only if no later request, LoadImage or Reset happened in the
// meantime; otherwise it is dropped. FilterNone completes synchronously.
func (s *Session) ApplyFilter(ctx context.Context, kind FilterKind) (*FilterTask, error) {
	s.mu.Lock()
	if s.state == StateEmpty {
		s.mu.Unlock()
		return nil, ErrNoImageLoaded
	}
	if !s.engine.Supports(kind) {
		s.mu.Unlock()
		return nil, &FilterError{Filter: kind, Reason: ErrFilterUnsupported}
	}
	s.token++
	task := newFilterTask(s.token, kind)
	source := s.source

	if kind == FilterNone {
		events := s.setFilteredLocked(source, FilterNone)
		s.mu.Unlock()
		s.events.emit(events...)
		task.finish(FilterApplied, nil)
		return task, nil
	}
	s.mu.Unlock()

	Logger().Debug("retouch: filter requested", "filter", kind, "token", task.token)
	s.engine.submit(ctx, source, kind, func(res FilterResult) {
		s.finishFilter(task, res)
	})
	return task, nil
}

// finishFilter commits or drops a completed filter result.
func (s *Session) finishFilter(task *FilterTask, res FilterResult) {
	s.mu.Lock()
	if task.token != s.token {
		latest := s.token
		s.mu.Unlock()
		Logger().Debug("retouch: stale filter result dropped",
			"filter", task.kind, "token", task.token, "latest", latest)
		task.finish(FilterSuperseded, nil)
		return
	}

	if res.Err != nil {
		ev := s.eventLocked(EventFilterFailed)
		ev.Filter = task.kind
		ev.Err = res.Err
		s.mu.Unlock()
		Logger().Warn("retouch: filter failed", "filter", task.kind, "error", res.Err)
		s.events.emit(ev)
		task.finish(FilterFailed, res.Err)
		return
	}

	events := s.setFilteredLocked(res.Image, task.kind)
	s.mu.Unlock()
	s.events.emit(events...)
	task.finish(FilterApplied, nil)
}

// setFilteredLocked installs a new filtered base image and commits.
func (s *Session) setFilteredLocked(filtered *ImageBuffer, kind FilterKind) []Event {
	if s.filtered == filtered && s.filter == kind {
		return nil
	}
	s.filtered = filtered
	s.filter = kind
	return s.commitLocked("filter")
}

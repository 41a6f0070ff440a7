package retouch

import (
	"sync"
)

// EventType identifies a session notification.
type EventType int

const (
	// EventPreviewChanged fires when the composited preview is replaced.
	EventPreviewChanged EventType = iota
	// EventHistoryChanged fires when the history or its cursor changes,
	// which may change CanUndo and CanRedo.
	EventHistoryChanged
	// EventFilterFailed fires when the latest filter request fails.
	EventFilterFailed
	// EventReset fires when the session returns to the empty state.
	EventReset
)

func (t EventType) String() string {
	switch t {
	case EventPreviewChanged:
		return "preview-changed"
	case EventHistoryChanged:
		return "history-changed"
	case EventFilterFailed:
		return "filter-failed"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event is delivered to listeners registered with Session.On.
type Event struct {
	Type    EventType
	Preview *ImageBuffer
	Filter  FilterKind
	CanUndo bool
	CanRedo bool
	// Err is set for EventFilterFailed.
	Err error
}

// Listener receives session events. Listeners run on the goroutine that
// caused the event, after the session lock is released, so they may call
// back into the session. Filter completions are delivered from a background
// goroutine.
type Listener func(Event)

type listenerEntry struct {
	id uint64
	fn Listener
}

// emitter is a small listener registry. It is safe for concurrent use.
type emitter struct {
	mu     sync.RWMutex
	nextID uint64
	byType map[EventType][]listenerEntry
}

func (e *emitter) on(t EventType, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.byType == nil {
		e.byType = make(map[EventType][]listenerEntry)
	}
	e.nextID++
	id := e.nextID
	e.byType[t] = append(e.byType[t], listenerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { e.off(t, id) })
	}
}

func (e *emitter) off(t EventType, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.byType[t]
	for i, l := range list {
		if l.id == id {
			// Copy so that an in-flight emit keeps its snapshot intact.
			e.byType[t] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (e *emitter) emit(events ...Event) {
	for _, ev := range events {
		e.mu.RLock()
		list := e.byType[ev.Type]
		e.mu.RUnlock()
		for _, l := range list {
			l.fn(ev)
		}
	}
}

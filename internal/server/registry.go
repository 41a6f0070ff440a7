package server

import (
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
)

// errSessionNotFound is returned for unknown session ids.
var errSessionNotFound = errors.New("session not found")

// Registry owns the live edit sessions, keyed by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*retouch.Session
	opts     []retouch.Option
	notify   Notifier
}

// NewRegistry returns an empty registry. Every session is created with opts
// and reports its events to notify, which may be nil.
func NewRegistry(notify Notifier, opts ...retouch.Option) *Registry {
	return &Registry{
		sessions: make(map[string]*retouch.Session),
		opts:     opts,
		notify:   notify,
	}
}

// Create starts a session on img and returns its id.
func (r *Registry) Create(img *retouch.ImageBuffer) (string, *retouch.Session, error) {
	s, err := retouch.NewSession(r.opts...)
	if err != nil {
		return "", nil, err
	}
	if err := s.LoadImage(img); err != nil {
		s.Close()
		return "", nil, err
	}

	id := ulid.Make().String()
	if r.notify != nil {
		for _, t := range []retouch.EventType{
			retouch.EventPreviewChanged,
			retouch.EventHistoryChanged,
			retouch.EventFilterFailed,
			retouch.EventReset,
		} {
			s.On(t, func(ev retouch.Event) { r.notify.Notify(id, ev) })
		}
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"width":      img.Width(),
		"height":     img.Height(),
	}).Info("Session created")
	return id, s, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*retouch.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errSessionNotFound
	}
	return s, nil
}

// Has reports whether id names a live session.
func (r *Registry) Has(id string) bool {
	_, err := r.Get(id)
	return err == nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return errSessionNotFound
	}
	s.Close()
	logrus.WithField("session_id", id).Info("Session closed")
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*retouch.Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

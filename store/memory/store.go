// Package memory is an in-process recent edit store.
package memory

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store/entry"
)

type memStore struct {
	mu    sync.RWMutex
	edits map[string]*retouch.RecentEdit
}

// NewStore returns an empty in-memory store.
func NewStore() *memStore {
	return &memStore{edits: make(map[string]*retouch.RecentEdit)}
}

func (s *memStore) Save(ctx context.Context, edit *retouch.RecentEdit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e, err := entry.Prepare(edit)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.edits[e.ID] = e
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"edit_id": e.ID,
		"width":   e.Edited.Width(),
		"height":  e.Edited.Height(),
	}).Info("Recent edit saved")
	return e.ID, nil
}

func (s *memStore) List(ctx context.Context) ([]*retouch.RecentEdit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*retouch.RecentEdit, 0, len(s.edits))
	for _, e := range s.edits {
		out = append(out, &retouch.RecentEdit{ID: e.ID, Thumbnail: e.Thumbnail, CreatedAt: e.CreatedAt})
	}
	s.mu.RUnlock()

	entry.SortNewest(out)
	logrus.WithField("count", len(out)).Debug("Recent edits listed")
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*retouch.RecentEdit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.edits[id]
	s.mu.RUnlock()
	if !ok {
		logrus.WithField("edit_id", id).Warn("Recent edit not found")
		return nil, entry.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.edits[id]
	delete(s.edits, id)
	s.mu.Unlock()
	if !ok {
		return entry.ErrNotFound
	}
	logrus.WithField("edit_id", id).Info("Recent edit deleted")
	return nil
}

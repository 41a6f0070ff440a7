package retouch

import (
	"context"
	"fmt"
	"time"
)

// Thumbnail size used for recent edits.
const (
	RecentThumbnailWidth  = 200
	RecentThumbnailHeight = 200
)

// RecentEdit is an exported edit kept by a RecentStore.
type RecentEdit struct {
	ID        string
	Thumbnail *ImageBuffer
	Original  *ImageBuffer
	Edited    *ImageBuffer
	CreatedAt time.Time
}

// RecentStore persists exported edits. Implementations live in the store
// package.
type RecentStore interface {
	// Save stores edit and returns its id. An empty edit.ID is assigned by
	// the store.
	Save(ctx context.Context, edit *RecentEdit) (string, error)
	// List returns the stored edits, newest first. Implementations may leave
	// Original and Edited nil.
	List(ctx context.Context) ([]*RecentEdit, error)
	// Get returns the full edit with the given id.
	Get(ctx context.Context, id string) (*RecentEdit, error)
	// Delete removes the edit with the given id.
	Delete(ctx context.Context, id string) error
}

// NewRecentEdit builds an entry for original and edited with a thumbnail of
// the edited image.
func NewRecentEdit(original, edited *ImageBuffer, at time.Time) (*RecentEdit, error) {
	if original == nil || edited == nil {
		return nil, ErrNilImage
	}
	thumb, err := edited.Thumbnail(RecentThumbnailWidth, RecentThumbnailHeight)
	if err != nil {
		return nil, err
	}
	return &RecentEdit{
		Thumbnail: thumb,
		Original:  original,
		Edited:    edited,
		CreatedAt: at,
	}, nil
}

// SaveRecent exports the current edit and saves it to store.
// The session state is not changed.
func (s *Session) SaveRecent(ctx context.Context, store RecentStore) (string, error) {
	edited, err := s.ExportFlattened()
	if err != nil {
		return "", err
	}
	edit, err := NewRecentEdit(s.Source(), edited, time.Now())
	if err != nil {
		return "", err
	}
	id, err := store.Save(ctx, edit)
	if err != nil {
		return "", fmt.Errorf("retouch: save recent edit: %w", err)
	}
	Logger().Info("retouch: recent edit saved", "id", id)
	return id, nil
}

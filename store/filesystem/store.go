// Package filesystem stores recent edits as one directory per edit.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store/entry"
)

type fsStore struct {
	basePath string
}

// NewStore creates basePath if needed and returns a store rooted there.
func NewStore(basePath string) (*fsStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("filesystem store: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem store: create base directory: %w", err)
	}
	return &fsStore{basePath: abs}, nil
}

// editPath returns the directory of id, refusing anything outside basePath.
func (s *fsStore) editPath(id string) (string, error) {
	if err := entry.CheckID(id); err != nil {
		return "", err
	}
	p := filepath.Join(s.basePath, id)
	if !strings.HasPrefix(p, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", entry.ErrInvalidID, id)
	}
	return p, nil
}

func (s *fsStore) Save(ctx context.Context, edit *retouch.RecentEdit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := entry.Encode(edit)
	if err != nil {
		return "", err
	}
	dir, err := s.editPath(b.Meta.ID)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"edit_id": b.Meta.ID,
		"path":    dir,
	})

	meta, err := entry.MarshalMeta(b.Meta)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Error("Failed to create edit directory")
		return "", err
	}
	// meta.yaml goes last: List skips directories without it.
	files := []struct {
		name string
		data []byte
	}{
		{entry.ThumbnailFile, b.Thumbnail},
		{entry.OriginalFile, b.Original},
		{entry.EditedFile, b.Edited},
		{entry.MetaFile, meta},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o644); err != nil {
			log.WithError(err).WithField("file", f.name).Error("Failed to write edit")
			return "", err
		}
	}
	log.Info("Recent edit saved")
	return b.Meta.ID, nil
}

func (s *fsStore) List(ctx context.Context) ([]*retouch.RecentEdit, error) {
	log := logrus.WithField("path", s.basePath)
	dirs, err := os.ReadDir(s.basePath)
	if err != nil {
		log.WithError(err).Error("Failed to read store directory")
		return nil, err
	}

	out := make([]*retouch.RecentEdit, 0, len(dirs))
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.IsDir() {
			continue
		}
		b, err := s.read(d.Name(), entry.ThumbnailFile)
		if err != nil {
			log.WithError(err).WithField("edit_id", d.Name()).Warn("Skipping unreadable edit")
			continue
		}
		e, err := b.Decode()
		if err != nil {
			log.WithError(err).WithField("edit_id", d.Name()).Warn("Skipping undecodable edit")
			continue
		}
		out = append(out, e)
	}
	entry.SortNewest(out)
	return out, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (*retouch.RecentEdit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logrus.WithField("edit_id", id)
	b, err := s.read(id, entry.ThumbnailFile, entry.OriginalFile, entry.EditedFile)
	if err != nil {
		if errors.Is(err, entry.ErrNotFound) {
			log.Warn("Recent edit not found")
		} else {
			log.WithError(err).Error("Failed to read edit")
		}
		return nil, err
	}
	return b.Decode()
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.editPath(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return entry.ErrNotFound
		}
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		logrus.WithField("edit_id", id).WithError(err).Error("Failed to delete edit")
		return err
	}
	logrus.WithField("edit_id", id).Info("Recent edit deleted")
	return nil
}

// read loads the metadata of id and the named image files.
func (s *fsStore) read(id string, files ...string) (*entry.Blobs, error) {
	dir, err := s.editPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, entry.MetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, entry.ErrNotFound
		}
		return nil, err
	}
	meta, err := entry.UnmarshalMeta(data)
	if err != nil {
		return nil, err
	}
	b := &entry.Blobs{Meta: meta}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("filesystem store: %s/%s: %w", id, name, err)
		}
		switch name {
		case entry.ThumbnailFile:
			b.Thumbnail = data
		case entry.OriginalFile:
			b.Original = data
		case entry.EditedFile:
			b.Edited = data
		}
	}
	return b, nil
}

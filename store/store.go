// Package store selects and wraps the recent edit stores.
package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store/aws"
	"github.com/gogpu/retouch/store/entry"
	"github.com/gogpu/retouch/store/filesystem"
	"github.com/gogpu/retouch/store/memory"
	"github.com/gogpu/retouch/store/sqlite"
)

// DefaultCapacity is the number of recent edits kept by Capped.
const DefaultCapacity = 20

// Errors shared by every store.
var (
	ErrNotFound  = entry.ErrNotFound
	ErrInvalidID = entry.ErrInvalidID
)

// Config selects a store implementation.
type Config struct {
	// Type is one of "memory", "filesystem", "sqlite" or "s3". Empty means memory.
	Type string `yaml:"type"`
	// Path is the base directory of the filesystem store.
	Path string `yaml:"path"`
	// DSN is the SQLite data source name.
	DSN string `yaml:"dsn"`
	// Bucket is the S3 bucket name.
	Bucket string `yaml:"bucket"`
	// Capacity caps the number of kept edits. 0 means DefaultCapacity and a
	// negative value disables the cap.
	Capacity int `yaml:"capacity"`
}

// Open builds the store described by cfg, wrapped in Capped.
func Open(ctx context.Context, cfg Config) (retouch.RecentStore, error) {
	var (
		s   retouch.RecentStore
		err error
	)
	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		basePath := cfg.Path
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		s, err = filesystem.NewStore(basePath)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "retouch.db"
		}
		storageField["dataSourceName"] = dsn
		s, err = sqlite.NewStore(dsn)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("store: s3 storage needs a bucket name")
		}
		storageField["bucketName"] = cfg.Bucket
		s, err = aws.NewStore(ctx, cfg.Bucket)
	case "", "memory":
		s = memory.NewStore()
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("store: unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	storageField["capacity"] = capacity
	logrus.WithFields(storageField).Info("Use storage")
	if capacity < 0 {
		return s, nil
	}
	return Capped(s, capacity), nil
}

// CappedStore keeps only the newest edits of the store it wraps.
type CappedStore struct {
	retouch.RecentStore
	mu       sync.Mutex
	capacity int
}

// Capped wraps s so that a Save evicts the oldest edits beyond capacity.
// A capacity <= 0 uses DefaultCapacity.
func Capped(s retouch.RecentStore, capacity int) *CappedStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &CappedStore{RecentStore: s, capacity: capacity}
}

// Capacity returns the maximum number of kept edits.
func (c *CappedStore) Capacity() int { return c.capacity }

// Save stores edit and then trims the store to its capacity.
func (c *CappedStore) Save(ctx context.Context, edit *retouch.RecentEdit) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.RecentStore.Save(ctx, edit)
	if err != nil {
		return "", err
	}
	edits, err := c.RecentStore.List(ctx)
	if err != nil {
		logrus.WithField("edit_id", id).WithError(err).Warn("Failed to list recent edits for eviction")
		return id, nil
	}
	for _, e := range edits[min(len(edits), c.capacity):] {
		if err := c.RecentStore.Delete(ctx, e.ID); err != nil {
			logrus.WithField("edit_id", e.ID).WithError(err).Warn("Failed to evict recent edit")
			continue
		}
		logrus.WithField("edit_id", e.ID).Debug("Evicted recent edit")
	}
	return id, nil
}

// Close closes the wrapped store if it holds resources.
func (c *CappedStore) Close() error {
	return Close(c.RecentStore)
}

// Close releases the resources of s if it has any.
func Close(s retouch.RecentStore) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Package sqlite stores recent edits in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store/entry"
)

const schema = `
CREATE TABLE IF NOT EXISTS recent_edits (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	thumbnail BLOB NOT NULL,
	original BLOB NOT NULL,
	edited BLOB NOT NULL
);`

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens dataSourceName and creates the table if needed.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: create table: %w", err)
	}
	return &sqliteStore{db}, nil
}

// Close closes the database.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Save(ctx context.Context, edit *retouch.RecentEdit) (string, error) {
	b, err := entry.Encode(edit)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"edit_id":     b.Meta.ID,
		"data_length": len(b.Original) + len(b.Edited),
	})

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO recent_edits (id, created_at, width, height, thumbnail, original, edited)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Meta.ID, b.Meta.CreatedAt.UnixNano(), b.Meta.Width, b.Meta.Height, b.Thumbnail, b.Original, b.Edited)
	if err != nil {
		log.WithError(err).Error("Failed to save recent edit")
		return "", err
	}
	log.Info("Recent edit saved")
	return b.Meta.ID, nil
}

func (s *sqliteStore) List(ctx context.Context) ([]*retouch.RecentEdit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, width, height, thumbnail FROM recent_edits ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*retouch.RecentEdit
	for rows.Next() {
		var (
			b       entry.Blobs
			created int64
		)
		if err := rows.Scan(&b.Meta.ID, &created, &b.Meta.Width, &b.Meta.Height, &b.Thumbnail); err != nil {
			return nil, err
		}
		b.Meta.CreatedAt = time.Unix(0, created).UTC()
		e, err := b.Decode()
		if err != nil {
			logrus.WithField("edit_id", b.Meta.ID).WithError(err).Warn("Skipping undecodable edit")
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*retouch.RecentEdit, error) {
	log := logrus.WithField("edit_id", id)
	var (
		b       = entry.Blobs{Meta: entry.Meta{ID: id}}
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, width, height, thumbnail, original, edited FROM recent_edits WHERE id = ?`, id).
		Scan(&created, &b.Meta.Width, &b.Meta.Height, &b.Thumbnail, &b.Original, &b.Edited)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Recent edit not found")
			return nil, entry.ErrNotFound
		}
		log.WithError(err).Error("Failed to retrieve recent edit")
		return nil, err
	}
	b.Meta.CreatedAt = time.Unix(0, created).UTC()
	return b.Decode()
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recent_edits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entry.ErrNotFound
	}
	logrus.WithField("edit_id", id).Info("Recent edit deleted")
	return nil
}

// Package entry holds the encoding shared by the recent edit stores.
package entry

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/retouch"
)

// File names used by stores that keep one object per image.
const (
	ThumbnailFile = "thumbnail.png"
	OriginalFile  = "original.png"
	EditedFile    = "edited.png"
	MetaFile      = "meta.yaml"
)

var (
	// ErrNotFound is returned when no edit has the requested id.
	ErrNotFound = errors.New("store: recent edit not found")

	// ErrInvalidID is returned for ids that are empty or look like paths.
	ErrInvalidID = errors.New("store: invalid id")
)

// Meta is the metadata written next to the images.
type Meta struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
}

// Blobs is an edit encoded for storage.
type Blobs struct {
	Meta      Meta
	Thumbnail []byte
	Original  []byte
	Edited    []byte
}

// NewID returns a fresh, lexically sortable id.
func NewID() string { return ulid.Make().String() }

// CheckID rejects ids that could escape a directory or key prefix.
func CheckID(id string) error {
	if id == "" || id == "." || id == ".." || path.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Prepare validates edit and returns a copy with the id, creation time and
// thumbnail filled in.
func Prepare(edit *retouch.RecentEdit) (*retouch.RecentEdit, error) {
	if edit == nil || edit.Original == nil || edit.Edited == nil {
		return nil, retouch.ErrNilImage
	}
	out := *edit
	if out.ID == "" {
		out.ID = NewID()
	}
	if err := CheckID(out.ID); err != nil {
		return nil, err
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}
	if out.Thumbnail == nil {
		thumb, err := out.Edited.Thumbnail(retouch.RecentThumbnailWidth, retouch.RecentThumbnailHeight)
		if err != nil {
			return nil, err
		}
		out.Thumbnail = thumb
	}
	return &out, nil
}

// Encode prepares edit and encodes its images as PNG.
func Encode(edit *retouch.RecentEdit) (*Blobs, error) {
	edit, err := Prepare(edit)
	if err != nil {
		return nil, err
	}
	b := &Blobs{Meta: Meta{
		ID:        edit.ID,
		CreatedAt: edit.CreatedAt.UTC(),
		Width:     edit.Edited.Width(),
		Height:    edit.Edited.Height(),
	}}
	for _, f := range []struct {
		dst *[]byte
		img *retouch.ImageBuffer
	}{
		{&b.Thumbnail, edit.Thumbnail},
		{&b.Original, edit.Original},
		{&b.Edited, edit.Edited},
	} {
		if *f.dst, err = f.img.PNG(); err != nil {
			return nil, fmt.Errorf("store: encode %s: %w", edit.ID, err)
		}
	}
	return b, nil
}

// Decode rebuilds an edit. Images whose blob is nil are left nil, so a
// listing can decode only the thumbnail.
func (b *Blobs) Decode() (*retouch.RecentEdit, error) {
	edit := &retouch.RecentEdit{ID: b.Meta.ID, CreatedAt: b.Meta.CreatedAt}
	for _, f := range []struct {
		dst  **retouch.ImageBuffer
		data []byte
	}{
		{&edit.Thumbnail, b.Thumbnail},
		{&edit.Original, b.Original},
		{&edit.Edited, b.Edited},
	} {
		if f.data == nil {
			continue
		}
		img, err := retouch.DecodeBytes(f.data)
		if err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", b.Meta.ID, err)
		}
		*f.dst = img
	}
	return edit, nil
}

// MarshalMeta encodes m as YAML.
func MarshalMeta(m Meta) ([]byte, error) {
	return yaml.Marshal(m)
}

// UnmarshalMeta decodes YAML metadata.
func UnmarshalMeta(data []byte) (Meta, error) {
	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("store: parse %s: %w", MetaFile, err)
	}
	if err := CheckID(m.ID); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// SortNewest orders edits newest first. Ties fall back to the id, which
// increases with creation order.
func SortNewest(edits []*retouch.RecentEdit) {
	slices.SortStableFunc(edits, func(a, b *retouch.RecentEdit) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}

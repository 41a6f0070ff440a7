package store_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store"
	awsstore "github.com/gogpu/retouch/store/aws"
	"github.com/gogpu/retouch/store/filesystem"
	"github.com/gogpu/retouch/store/memory"
	"github.com/gogpu/retouch/store/sqlite"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delim := aws.ToString(in.Delimiter)
	seen := make(map[string]bool)
	out := &s3.ListObjectsV2Output{}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if delim != "" {
			if i := strings.Index(k, delim); i >= 0 {
				p := k[:i+len(delim)]
				if !seen[p] {
					seen[p] = true
					out.CommonPrefixes = append(out.CommonPrefixes, s3types.CommonPrefix{Prefix: aws.String(p)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func stores(t *testing.T) map[string]retouch.RecentStore {
	t.Helper()
	fs, err := filesystem.NewStore(filepath.Join(t.TempDir(), "recent"))
	if err != nil {
		t.Fatal(err)
	}
	db, err := sqlite.NewStore(filepath.Join(t.TempDir(), "recent.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]retouch.RecentStore{
		"memory":     memory.NewStore(),
		"filesystem": fs,
		"sqlite":     db,
		"s3":         awsstore.NewStoreWithClient(newFakeS3(), "bucket"),
	}
}

func testEdit(t *testing.T, c retouch.RGBA, at time.Time) *retouch.RecentEdit {
	t.Helper()
	orig, err := retouch.NewSolidImageBuffer(40, 30, retouch.Black)
	if err != nil {
		t.Fatal(err)
	}
	edited, err := retouch.NewSolidImageBuffer(40, 30, c)
	if err != nil {
		t.Fatal(err)
	}
	e, err := retouch.NewRecentEdit(orig, edited, at)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first := testEdit(t, retouch.Red, base)
			second := testEdit(t, retouch.Blue, base.Add(time.Minute))

			id1, err := s.Save(ctx, first)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			id2, err := s.Save(ctx, second)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if id1 == "" || id1 == id2 {
				t.Fatalf("ids = %q, %q, want distinct non-empty", id1, id2)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 || list[0].ID != id2 || list[1].ID != id1 {
				t.Fatalf("List() ids = %v, want [%s %s]", ids(list), id2, id1)
			}
			if th := list[0].Thumbnail; th == nil || th.Width() != retouch.RecentThumbnailWidth {
				t.Errorf("List()[0].Thumbnail = %v, want %dpx wide", th, retouch.RecentThumbnailWidth)
			}

			got, err := s.Get(ctx, id1)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !got.CreatedAt.Equal(base) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
			}
			if got.Edited == nil || !got.Edited.SamePixels(first.Edited) {
				t.Error("Get().Edited differs from the saved image")
			}
			if got.Original == nil || !got.Original.SamePixels(first.Original) {
				t.Error("Get().Original differs from the saved image")
			}

			if err := s.Delete(ctx, id1); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(ctx, id1); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, id1); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Delete(deleted) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoresRejectNilImages(t *testing.T) {
	for name, s := range stores(t) {
		if _, err := s.Save(context.Background(), &retouch.RecentEdit{}); !errors.Is(err, retouch.ErrNilImage) {
			t.Errorf("%s: Save(empty) error = %v, want ErrNilImage", name, err)
		}
	}
}

func TestStoresRejectPathIDs(t *testing.T) {
	for _, name := range []string{"filesystem", "s3"} {
		s := stores(t)[name]
		for _, id := range []string{"../escape", "a/b", ".."} {
			if _, err := s.Get(context.Background(), id); !errors.Is(err, store.ErrInvalidID) {
				t.Errorf("%s: Get(%q) error = %v, want ErrInvalidID", name, id, err)
			}
		}
	}
}

func TestCapped(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := store.Capped(memory.NewStore(), 3)

	var saved []string
	for i := range 5 {
		id, err := s.Save(ctx, testEdit(t, retouch.Green, base.Add(time.Duration(i)*time.Second)))
		if err != nil {
			t.Fatal(err)
		}
		saved = append(saved, id)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{saved[4], saved[3], saved[2]}
	if got := ids(list); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if _, err := s.Get(ctx, saved[0]); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(evicted) error = %v, want ErrNotFound", err)
	}
	if s.Capacity() != 3 {
		t.Errorf("Capacity() = %d, want 3", s.Capacity())
	}
	if store.Capped(memory.NewStore(), 0).Capacity() != store.DefaultCapacity {
		t.Error("Capped(0) does not use DefaultCapacity")
	}
}

// listFailStore saves normally but cannot list.
type listFailStore struct {
	retouch.RecentStore
}

func (listFailStore) List(context.Context) ([]*retouch.RecentEdit, error) {
	return nil, errors.New("list unavailable")
}

func TestCappedListFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := logrus.StandardLogger().Out
	logrus.SetOutput(&logs)
	t.Cleanup(func() { logrus.SetOutput(prev) })

	ctx := context.Background()
	s := store.Capped(listFailStore{memory.NewStore()}, 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 2 {
		id, err := s.Save(ctx, testEdit(t, retouch.Green, base.Add(time.Duration(i)*time.Second)))
		if err != nil || id == "" {
			t.Errorf("Save() = %q, %v, want an id and nil error", id, err)
		}
	}

	tests := []struct {
		name string
		want string
	}{
		{"level", "level=warning"},
		{"message", "Failed to list recent edits for eviction"},
		{"cause", "list unavailable"},
	}
	for _, tt := range tests {
		if got := logs.String(); !strings.Contains(got, tt.want) {
			t.Errorf("log %s: output %q does not contain %q", tt.name, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     store.Config
		wantErr bool
	}{
		{"default", store.Config{}, false},
		{"memory", store.Config{Type: "memory", Capacity: -1}, false},
		{"filesystem", store.Config{Type: "filesystem", Path: filepath.Join(dir, "fs")}, false},
		{"sqlite", store.Config{Type: "sqlite", DSN: filepath.Join(dir, "r.db")}, false},
		{"s3 without bucket", store.Config{Type: "s3"}, true},
		{"unknown", store.Config{Type: "floppy"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := store.Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close(s)
			if _, err := s.Save(ctx, testEdit(t, retouch.White, time.Now())); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		})
	}
}

func ids(edits []*retouch.RecentEdit) []string {
	out := make([]string, len(edits))
	for i, e := range edits {
		out[i] = e.ID
	}
	return out
}

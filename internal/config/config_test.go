package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/retouch"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if cfg.Session.HistoryLimit != retouch.DefaultHistoryLimit {
		t.Errorf("HistoryLimit = %d, want %d", cfg.Session.HistoryLimit, retouch.DefaultHistoryLimit)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retouch.yaml")
	yml := `
server:
  listen: ":8080"
log:
  level: debug
session:
  max_dimension: 256
  history_equality: strict
store:
  type: filesystem
  path: /var/lib/retouch
  capacity: 5
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RETOUCH_LISTEN", ":9090")
	t.Setenv("RETOUCH_STORE_CAPACITY", "7")
	t.Setenv("RETOUCH_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	tests := []struct {
		name      string
		got, want any
	}{
		{"listen (env wins)", cfg.Server.Listen, ":9090"},
		{"log level", cfg.Log.Level, "debug"},
		{"log format default", cfg.Log.Format, "text"},
		{"max dimension", cfg.Session.MaxDimension, 256},
		{"equality", cfg.Session.HistoryEquality, "strict"},
		{"store type", cfg.Store.Type, "filesystem"},
		{"store path", cfg.Store.Path, "/var/lib/retouch"},
		{"store capacity (env wins)", cfg.Store.Capacity, 7},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.Server.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.Server.AllowedOrigins, want)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("server: [\n"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("Load(malformed) error = nil")
	}

	t.Setenv("RETOUCH_HISTORY_LIMIT", "many")
	if _, err := Load(""); err == nil {
		t.Error("Load with RETOUCH_HISTORY_LIMIT=many error = nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }},
		{"zero upload", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative dimension", func(c *Config) { c.Session.MaxDimension = -1 }},
		{"zero history", func(c *Config) { c.Session.HistoryLimit = 0 }},
		{"bad equality", func(c *Config) { c.Session.HistoryEquality = "fuzzy" }},
		{"negative workers", func(c *Config) { c.Session.Workers = -2 }},
		{"zero stroke", func(c *Config) { c.Session.StrokeWidth = 0 }},
		{"bad color", func(c *Config) { c.Session.StrokeColor = "#zz" }},
		{"s3 without bucket", func(c *Config) { c.Store.Type = "s3" }},
		{"unknown store", func(c *Config) { c.Store.Type = "tape" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := Default()
	cfg.Session.HistoryLimit = 2
	cfg.Session.HistoryEquality = "strict"
	opts, err := cfg.Session.Options()
	if err != nil {
		t.Fatal(err)
	}
	s, err := retouch.NewSession(opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	img, _ := retouch.NewSolidImageBuffer(8, 8, retouch.White)
	if err := s.LoadImage(img); err != nil {
		t.Fatal(err)
	}
	for i := range 3 {
		s.AddStroke([]retouch.Point{retouch.Pt(0, 0), retouch.Pt(float64(i+1), 4)}, retouch.RGBA{}, 0)
		s.EndStroke()
	}
	if s.HistoryLen() != 2 {
		t.Errorf("HistoryLen() = %d, want 2", s.HistoryLen())
	}
}

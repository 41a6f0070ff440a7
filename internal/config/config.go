// Package config loads the retouchd configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store"
)

// Config holds the configuration of the retouch service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
	Store   store.Config  `yaml:"store"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// MaxUploadMB limits the size of uploaded images.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SessionConfig holds the defaults of every edit session.
type SessionConfig struct {
	// MaxDimension downscales loaded images so neither side exceeds it. 0 disables it.
	MaxDimension    int     `yaml:"max_dimension"`
	HistoryLimit    int     `yaml:"history_limit"`
	HistoryEquality string  `yaml:"history_equality"`
	Workers         int     `yaml:"workers"`
	StrokeWidth     float64 `yaml:"default_stroke_width"`
	StrokeColor     string  `yaml:"default_stroke_color"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:         ":3002",
			AllowedOrigins: []string{"https://*", "http://*"},
			MaxUploadMB:    20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			HistoryLimit:    retouch.DefaultHistoryLimit,
			HistoryEquality: "coarse",
			StrokeWidth:     retouch.DefaultStrokeWidth,
			StrokeColor:     "#000000",
		},
		Store: store.Config{
			Type:     "memory",
			Capacity: store.DefaultCapacity,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any, and
// then with RETOUCH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"RETOUCH_LISTEN", &c.Server.Listen},
		{"RETOUCH_LOG_LEVEL", &c.Log.Level},
		{"RETOUCH_LOG_FORMAT", &c.Log.Format},
		{"RETOUCH_HISTORY_EQUALITY", &c.Session.HistoryEquality},
		{"RETOUCH_STROKE_COLOR", &c.Session.StrokeColor},
		{"RETOUCH_STORE_TYPE", &c.Store.Type},
		{"RETOUCH_STORE_PATH", &c.Store.Path},
		{"RETOUCH_STORE_DSN", &c.Store.DSN},
		{"RETOUCH_STORE_BUCKET", &c.Store.Bucket},
	}
	for _, s := range strs {
		if val := os.Getenv(s.key); val != "" {
			*s.dst = val
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RETOUCH_MAX_UPLOAD_MB", &c.Server.MaxUploadMB},
		{"RETOUCH_MAX_DIMENSION", &c.Session.MaxDimension},
		{"RETOUCH_HISTORY_LIMIT", &c.Session.HistoryLimit},
		{"RETOUCH_WORKERS", &c.Session.Workers},
		{"RETOUCH_STORE_CAPACITY", &c.Store.Capacity},
	}
	for _, i := range ints {
		if val := os.Getenv(i.key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", i.key, err)
			}
			*i.dst = n
		}
	}

	if val := os.Getenv("RETOUCH_STROKE_WIDTH"); val != "" {
		w, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid RETOUCH_STROKE_WIDTH: %w", err)
		}
		c.Session.StrokeWidth = w
	}
	if val := os.Getenv("RETOUCH_ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if c.Session.MaxDimension < 0 {
		return fmt.Errorf("max dimension must not be negative")
	}
	if c.Session.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	if _, err := c.Session.Equality(); err != nil {
		return err
	}
	if c.Session.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.Session.StrokeWidth <= 0 {
		return fmt.Errorf("default stroke width must be positive")
	}
	if _, err := retouch.ParseHex(c.Session.StrokeColor); err != nil {
		return fmt.Errorf("default stroke color: %w", err)
	}
	switch c.Store.Type {
	case "memory", "filesystem", "sqlite":
	case "s3":
		if c.Store.Bucket == "" {
			return fmt.Errorf("s3 store needs a bucket")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	return nil
}

// Equality returns the history equality named by HistoryEquality.
func (s SessionConfig) Equality() (retouch.EqualFunc, error) {
	switch s.HistoryEquality {
	case "", "coarse":
		return retouch.CoarseEqual, nil
	case "strict":
		return retouch.StrictEqual, nil
	}
	return nil, fmt.Errorf("history equality must be coarse or strict, got %q", s.HistoryEquality)
}

// Options converts the session defaults to retouch options.
func (s SessionConfig) Options() ([]retouch.Option, error) {
	eq, err := s.Equality()
	if err != nil {
		return nil, err
	}
	color, err := retouch.ParseHex(s.StrokeColor)
	if err != nil {
		return nil, err
	}
	return []retouch.Option{
		retouch.WithMaxDimension(s.MaxDimension),
		retouch.WithHistoryLimit(s.HistoryLimit),
		retouch.WithHistoryEquality(eq),
		retouch.WithStrokeStyle(color, s.StrokeWidth),
	}, nil
}

package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogrusHandler(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	log := slog.New(newLogrusHandler(l)).With("session", "abc").WithGroup("img")
	log.Debug("hidden")
	log.Info("image loaded", "width", 64)
	log.Warn("filter failed")

	out := buf.String()
	tests := []struct {
		want string
		in   bool
	}{
		{"hidden", false},
		{`msg="image loaded"`, true},
		{"session=abc", true},
		{"img.width=64", true},
		{"level=warning", true},
	}
	for _, tt := range tests {
		if got := strings.Contains(out, tt.want); got != tt.in {
			t.Errorf("output contains %q = %v, want %v\n%s", tt.want, got, tt.in, out)
		}
	}
}

func TestLogrusLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want logrus.Level
	}{
		{slog.LevelDebug, logrus.DebugLevel},
		{slog.LevelInfo, logrus.InfoLevel},
		{slog.LevelWarn, logrus.WarnLevel},
		{slog.LevelError, logrus.ErrorLevel},
		{slog.LevelError + 4, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		if got := logrusLevel(tt.in); got != tt.want {
			t.Errorf("logrusLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

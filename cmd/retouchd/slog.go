package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sirupsen/logrus"
)

// logrusHandler is a slog.Handler that writes records to a logrus logger,
// so library logs share the service's level and formatter.
type logrusHandler struct {
	logger *logrus.Logger
	fields logrus.Fields
	group  string
}

func newLogrusHandler(l *logrus.Logger) *logrusHandler {
	return &logrusHandler{logger: l, fields: logrus.Fields{}}
}

func logrusLevel(l slog.Level) logrus.Level {
	switch {
	case l >= slog.LevelError:
		return logrus.ErrorLevel
	case l >= slog.LevelWarn:
		return logrus.WarnLevel
	case l >= slog.LevelInfo:
		return logrus.InfoLevel
	}
	return logrus.DebugLevel
}

func (h *logrusHandler) Enabled(_ context.Context, l slog.Level) bool {
	return h.logger.IsLevelEnabled(logrusLevel(l))
}

func (h *logrusHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(logrus.Fields, len(h.fields)+r.NumAttrs())
	for k, v := range h.fields {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		h.add(fields, a)
		return true
	})
	entry := h.logger.WithFields(fields)
	if !r.Time.IsZero() {
		entry = entry.WithTime(r.Time)
	}
	entry.Log(logrusLevel(r.Level), r.Message)
	return nil
}

func (h *logrusHandler) add(fields logrus.Fields, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	fields[key] = a.Value.Resolve().Any()
}

func (h *logrusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &logrusHandler{logger: h.logger, fields: make(logrus.Fields, len(h.fields)+len(attrs)), group: h.group}
	for k, v := range h.fields {
		next.fields[k] = v
	}
	for _, a := range attrs {
		h.add(next.fields, a)
	}
	return next
}

func (h *logrusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = strings.Join([]string{h.group, name}, ".")
	}
	return &logrusHandler{logger: h.logger, fields: h.fields, group: group}
}

package retouch

import (
	"log/slog"
	"sync/atomic"
)

var (
	discard = slog.New(slog.DiscardHandler)
	logger  atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(discard)
}

// SetLogger sets the logger used by sessions, the filter engine and the
// compositor. Nothing is logged until it is called; nil silences logging
// again. It may be called while sessions are running.
//
// Levels:
//   - Debug: filter requests and timings, stale results, skipped commits
//   - Info: image loaded, session reset, recent edit saved
//   - Warn: failed filters, overlays that could not be drawn
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	logger.Store(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return logger.Load()
}

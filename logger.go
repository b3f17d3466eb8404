// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/compositor/internal/logging"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logging.Nop())
}

var (
	hostsMu sync.Mutex
	hosts   = make(map[*Host]struct{})
)

// SetLogger configures the logger for the compositor and every live Host.
// By default the compositor produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels:
//   - [slog.LevelDebug]: per-frame decisions (tile transitions, strategy chosen)
//   - [slog.LevelInfo]: lifecycle events (overlay processor initialized)
//   - [slog.LevelWarn]: non-fatal issues (raster failure, memory budget exhausted)
//
// Example:
//
//	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	l = logging.OrNop(l)
	loggerPtr.Store(l)

	hostsMu.Lock()
	live := make([]*Host, 0, len(hosts))
	for h := range hosts {
		live = append(live, h)
	}
	hostsMu.Unlock()

	for _, h := range live {
		propagateLogger(h, l)
	}
}

// Logger returns the current logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by components that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to v if it implements loggerSetter.
func propagateLogger(v any, l *slog.Logger) {
	if ls, ok := v.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func registerHost(h *Host) {
	hostsMu.Lock()
	hosts[h] = struct{}{}
	hostsMu.Unlock()
}

func unregisterHost(h *Host) {
	hostsMu.Lock()
	delete(hosts, h)
	hostsMu.Unlock()
}

// Package logging holds the process-wide structured logger used by the
// library packages. It discards everything until SetLogger is called.
package logging

import (
	"log/slog"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

var discard = slog.New(slog.DiscardHandler)

// SetLogger replaces the logger shared by all packages. A nil logger restores
// the silent default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return discard
}

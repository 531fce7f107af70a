package stage

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record. It is the default
// handler so that library consumers opt in to logging instead of opting out.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs the logger used by this package and its subpackages for
// diagnostics that have no error return path, such as failures inside the
// render loop. Passing nil restores the default no-op logger.
//
// Parameters:
//   - l: the logger to install, or nil to silence the package.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger retrieves the currently installed package logger.
//
// Returns:
//   - *slog.Logger: the active logger, never nil.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

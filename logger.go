package ormforge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is the pluggable logging contract consumed by the execution layer
// and the transaction core (the `hooks.onQueryStart/onQueryEnd/onQueryError`
// and `transactionDefaults.logger` surfaces in §6).
type Logger interface {
	Log(args ...any)
	Logf(format string, args ...any)
}

// LogFunc adapts a plain function to the Logger interface.
type LogFunc func(args ...any)

// Log implements Logger.
func (f LogFunc) Log(args ...any) { f(args...) }

// Logf implements Logger by formatting into a single string.
func (f LogFunc) Logf(format string, args ...any) {
	f(fmt.Sprintf(format, args...))
}

// logrusLogger adapts a *logrus.Logger (or Entry) to the Logger interface.
// This is the default Logger the teacher's ambient stack reaches for:
// structured logging via sirupsen/logrus.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l as a Logger, attaching the "component" field so
// every line is attributable to the subsystem that emitted it.
func NewLogrusLogger(l *logrus.Logger, component string) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{entry: l.WithField("component", component)}
}

// Log implements Logger.
func (l *logrusLogger) Log(args ...any) {
	l.entry.Info(args...)
}

// Logf implements Logger.
func (l *logrusLogger) Logf(format string, args ...any) {
	l.entry.Infof(format, args...)
}

// NopLogger discards every log line. It is the default when no Logger is
// configured, matching the teacher's "best-effort, swallow hook errors"
// posture for observability hooks.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Log(args ...any)                 {}
func (nopLogger) Logf(format string, args ...any) {}

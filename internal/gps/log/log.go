// Package log is a thin wrapper around logrus used throughout the
// engine so that OS-façade actions (§4.4 print_action) and
// PDB/Builder/Packager steps are reported uniformly, the way the
// teacher's log.Logger wraps an io.Writer.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger reports engine activity. A process has exactly one Logger,
// threaded through construction rather than reached via a package
// global, per the engine's no-global-state design note (§9).
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger that writes to w. verbose raises the level to
// Debug; otherwise only Info and above are emitted.
func New(w io.Writer, verbose bool) *Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	if verbose {
		l.Level = logrus.DebugLevel
	} else {
		l.Level = logrus.InfoLevel
	}
	return &Logger{entry: logrus.NewEntry(l)}
}

// Action logs a single externally-visible action, the Go analogue of
// the C engine's bz_mock_print_action callback: one line describing a
// subprocess invocation, file write, or package-manager call.
func (l *Logger) Action(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Debugf logs a formatted diagnostic line, shown only when verbose.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// WithField returns a child Logger carrying a persistent structured
// field (e.g. "package", "step"), attached to every line it logs.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Discard returns a Logger that drops everything, used by tests and by
// mock-backed OS façade runs that don't want console noise.
func Discard() *Logger {
	l := logrus.New()
	l.Out = io.Discard
	return &Logger{entry: logrus.NewEntry(l)}
}

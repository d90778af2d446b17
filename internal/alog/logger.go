// Package alog is a minimal wrapper around an io.Writer, in the same spirit
// as golang-dep's own log package: a couple of prefixed helpers rather than
// a full leveled-logging framework.
package alog

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer
	verbose bool
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// SetVerbose toggles whether Vlogf actually writes.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Logln logs a line.
func (l *Logger) Logln(args ...interface{}) {
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// LogAgentfln logs a formatted line, prefixed with `depagent: `.
func (l *Logger) LogAgentfln(format string, args ...interface{}) {
	fmt.Fprintf(l, "depagent: "+format+"\n", args...)
}

// Vlogf logs a formatted string only when verbose mode is on.
func (l *Logger) Vlogf(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.Logf(format, args...)
}

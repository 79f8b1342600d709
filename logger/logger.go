// Package logger provides the wrapper's stderr diagnostics. The child's own
// streams pass through the wrapper untouched, so nothing here wraps child
// output; the prefix only marks lines as the wrapper's.
package logger

import (
	"io"
	"log"
)

type Logger struct {
	out *log.Logger
}

func New(prefix string, out io.Writer) *Logger {
	return &Logger{
		out: log.New(out, prefix, 0),
	}
}

func (l *Logger) Printf(format string, args ...any) {
	l.out.Printf(format, args...)
}

// Warnf reports a non-fatal setup problem. Supervision continues; a degraded
// run still enforces the deadline and still reports.
func (l *Logger) Warnf(format string, args ...any) {
	l.out.Printf("warning: "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.out.Printf(format, args...)
}

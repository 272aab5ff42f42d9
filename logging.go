// logging.go - structured logging interface for the reactor.
//
// The reactor depends only on the small Logger interface below, so callers
// may plug in any backend. NewStumpyLogger wires github.com/joeycumines/
// logiface with the github.com/joeycumines/stumpy JSON backend, for callers
// who want a ready-made structured logger without pulling in their own
// logging stack.
//
// Design decision: a pluggable interface, rather than a package-level
// global, is used here because a reactor is almost always one of several
// independently configured instances in a process (see options.go
// WithLogger) - unlike a single shared event loop, per-instance
// configuration is the common case.

package reactor

import (
	"fmt"
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Level is the severity of a log message.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the level's name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// Logger is the structured logging interface the reactor logs through, for
// run-loop diagnostics: fiber spawn, fiber termination with an error, hogger
// warnings, fault recovery, poller notices and failures, and hang-detector
// aborts.
type Logger interface {
	Log(level Level, msg string, fields map[string]any)
}

// noopLogger discards everything; it is the default (spec.md §6).
type noopLogger struct{}

func (noopLogger) Log(Level, string, map[string]any) {}

func toLogifaceLevel(l Level) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarning:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// stumpyLogger adapts a logiface.Logger[*stumpy.Event] to the reactor's
// Logger interface.
type stumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a Logger that writes newline-delimited JSON to w
// via logiface + stumpy, filtering out anything below min.
func NewStumpyLogger(w io.Writer, min Level) Logger {
	l := logiface.New[*stumpy.Event](
		stumpy.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](toLogifaceLevel(min)),
	)
	return &stumpyLogger{l: l}
}

func (s *stumpyLogger) Log(level Level, msg string, fields map[string]any) {
	b := s.l.Build(toLogifaceLevel(level))
	if b == nil || !b.Enabled() {
		return
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			b.Err(err)
			continue
		}
		b.Any(k, v)
	}
	b.Log(msg)
}

// Package logging provides the leveled logger shared by the setup and launch paths.
//
// Components accept the Logger interface and default to a no-op implementation, so
// library code stays silent unless the command wires in a real backend. The real
// backend is zerolog writing a console-formatted stream to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with key-value pairs.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return noopLogger{}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// Zerolog adapts a zerolog.Logger to the Logger interface.
type Zerolog struct {
	zl zerolog.Logger
}

// New creates a console logger writing to w at the given level.
// Unknown level strings fall back to "warn" so the launcher stays quiet by default.
func New(w io.Writer, level string) *Zerolog {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isTerminal(w),
		TimeFormat: "15:04:05",
	}
	zl := zerolog.New(console).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &Zerolog{zl: zl}
}

// NewJSON creates a logger emitting one JSON object per line. Used by tests and
// when stderr is redirected into a log collector.
func NewJSON(w io.Writer, level string) *Zerolog {
	zl := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &Zerolog{zl: zl}
}

// ParseLevel maps a level name to a zerolog level (case-insensitive).
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning", "":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

func (z *Zerolog) Debug(msg string, keysAndValues ...interface{}) {
	withFields(z.zl.Debug(), keysAndValues).Msg(msg)
}

func (z *Zerolog) Info(msg string, keysAndValues ...interface{}) {
	withFields(z.zl.Info(), keysAndValues).Msg(msg)
}

func (z *Zerolog) Warn(msg string, keysAndValues ...interface{}) {
	withFields(z.zl.Warn(), keysAndValues).Msg(msg)
}

func (z *Zerolog) Error(msg string, keysAndValues ...interface{}) {
	withFields(z.zl.Error(), keysAndValues).Msg(msg)
}

// withFields attaches alternating key/value pairs. A trailing key without a value
// is logged under "!BADKEY" rather than dropped.
func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			e = e.Interface("!BADKEY", key)
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case bool:
			e = e.Bool(key, v)
		case []string:
			e = e.Strs(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

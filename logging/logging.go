// Package logging provides the structured logging facade shared by the
// loop and selector packages and the CLI entrypoints.
//
// A package-level configurable logger is used here because logging is an
// infrastructure cross-cutting concern: loop instances share logging
// semantics, and a no-op default avoids forcing configuration on callers
// who don't want it.
package logging

import (
	"log/slog"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Fields is a lightweight key/value list attached to a log line.
type Fields = []Field

// Field is a single structured log attribute.
type Field struct {
	Key string
	Val any
}

// Str builds a string Field.
func Str(key, val string) Field { return Field{Key: key, Val: val} }

// Int builds an int Field.
func Int(key string, val int) Field { return Field{Key: key, Val: val} }

// Err builds an error Field under the conventional "error" key.
func Err(err error) Field { return Field{Key: "error", Val: err} }

// Logger is the logging contract used throughout this module. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

var global struct {
	sync.RWMutex
	logger Logger
}

func init() {
	global.logger = NewNoopLogger()
}

// SetLogger installs the package-level logger used by internal packages
// that don't have one injected directly.
func SetLogger(l Logger) {
	if l == nil {
		l = NewNoopLogger()
	}
	global.Lock()
	global.logger = l
	global.Unlock()
}

// Global returns the current package-level logger.
func Global() Logger {
	global.RLock()
	defer global.RUnlock()
	return global.logger
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

// ParseLevel maps a CLI/config level name to a logiface.Level, defaulting
// to logiface.LevelInformational for an unrecognized name.
func ParseLevel(name string) logiface.Level {
	switch name {
	case "debug":
		return logiface.LevelDebug
	case "warn", "warning":
		return logiface.LevelWarning
	case "error":
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// logifaceLogger adapts a logiface.Logger (backed by the logiface-slog
// handler adapter) to the Logger interface.
type logifaceLogger struct {
	l *logiface.Logger[*islog.Event]
}

// NewJSONLogger returns a Logger that writes structured JSON lines to w
// (os.Stderr by default) via logiface, using the slog JSON handler as the
// backend, at minLevel and above.
func NewJSONLogger(w *os.File, minLevel logiface.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, nil)
	l := logiface.New[*islog.Event](
		islog.WithSlogHandler(handler),
		logiface.WithLevel[*islog.Event](minLevel),
	)
	return &logifaceLogger{l: l}
}

func (g *logifaceLogger) log(b *logiface.Builder[*islog.Event], msg string, fields []Field) {
	for _, f := range fields {
		switch v := f.Val.(type) {
		case string:
			b = b.Str(f.Key, v)
		case error:
			b = b.Err(v)
		case int:
			b = b.Int(f.Key, v)
		default:
			b = b.Any(f.Key, v)
		}
	}
	b.Log(msg)
}

func (g *logifaceLogger) Debug(msg string, fields ...Field) { g.log(g.l.Debug(), msg, fields) }
func (g *logifaceLogger) Info(msg string, fields ...Field)  { g.log(g.l.Info(), msg, fields) }
func (g *logifaceLogger) Warn(msg string, fields ...Field)  { g.log(g.l.Warning(), msg, fields) }
func (g *logifaceLogger) Error(msg string, fields ...Field) { g.log(g.l.Err(), msg, fields) }

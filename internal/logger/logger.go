// Package logger wraps zerolog with the fields the resolver and server
// attach to every event.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level is a log level.
type Level = zerolog.Level

// Log levels.
const (
	TraceLevel = zerolog.TraceLevel
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	Disabled   = zerolog.Disabled
)

// Field names shared by every component.
const (
	FieldComponent = "component"
	FieldURL       = "url"
	FieldItem      = "item_id"
)

// Config holds logger configuration.
type Config struct {
	Level     Level
	Pretty    bool      // console writer instead of JSON lines
	Output    io.Writer // defaults to stderr
	Component string
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		Level:  InfoLevel,
		Pretty: true,
		Output: os.Stderr,
	}
}

// Logger is an immutable structured logger. With* methods return children.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zctx := zerolog.New(out).Level(cfg.Level).With().Timestamp()
	if cfg.Component != "" {
		zctx = zctx.Str(FieldComponent, cfg.Component)
	}
	return &Logger{zl: zctx.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) child(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: fn(l.zl.With()).Logger()}
}

// WithComponent tags events with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, component) })
}

// WithField adds an arbitrary field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithURL tags events with a page URL.
func (l *Logger) WithURL(url string) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Str(FieldURL, url) })
}

// WithItem tags events with a workshop item id.
func (l *Logger) WithItem(itemID string) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Str(FieldItem, itemID) })
}

// WithError attaches err.
func (l *Logger) WithError(err error) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

func (l *Logger) Trace(msg string) { l.zl.Trace().Msg(msg) }
func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Enabled reports whether events at level are written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.zl.GetLevel() && l.zl.GetLevel() != Disabled
}

// RequestEvent logs a handled HTTP request. Server errors are logged at warn.
func (l *Logger) RequestEvent(method, path string, statusCode int, duration time.Duration) {
	ev := l.zl.Info()
	if statusCode >= 500 {
		ev = l.zl.Warn()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("HTTP request")
}

// FetchEvent logs a completed outbound page fetch.
func (l *Logger) FetchEvent(url string, statusCode int, duration time.Duration) {
	l.zl.Debug().
		Str(FieldURL, url).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("Fetched page")
}

// PageEvent logs a classified page and how many references it fans out to.
func (l *Logger) PageEvent(url, itemID, pageType string, references int) {
	l.zl.Debug().
		Str(FieldURL, url).
		Str(FieldItem, itemID).
		Str("page_type", pageType).
		Int("references", references).
		Msg("Classified page")
}

// ParseLevel parses a level name, case-insensitively. An empty name is info.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return InfoLevel, nil
	}
	return zerolog.ParseLevel(name)
}

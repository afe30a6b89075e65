// Package logging wraps log/slog with the handful of conventions the dock and
// overlay share: a configurable level and format, component child loggers
// and a helper for logging errors with their call site.
package logging

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level     string `toml:"level"`      // debug, info, warn, error
	Format    string `toml:"format"`     // text, json
	AddSource bool   `toml:"add_source"` // include file:line of the call site
}

// DefaultConfig is used when nothing is configured.
var DefaultConfig = Config{
	Level:  "info",
	Format: "text",
}

// Logger is a thin wrapper around slog.Logger
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Init builds a stderr logger from cfg and installs it as the slog default.
func Init(cfg Config) *Logger {
	l := New(os.Stderr, cfg)
	slog.SetDefault(l.Logger)
	return l
}

// Default returns a Logger around the current slog default.
func Default() *Logger {
	return &Logger{Logger: slog.Default()}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return New(io.Discard, Config{Level: "error"})
}

// WithComponent creates a child logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", component))}
}

// LogError logs err at error level together with the caller's location.
func (l *Logger) LogError(err error, msg string, args ...any) {
	attrs := make([]any, 0, len(args)+2)
	attrs = append(attrs, slog.String("error", err.Error()))
	if _, file, line, ok := runtime.Caller(1); ok {
		attrs = append(attrs, slog.Group("caller",
			slog.String("file", file),
			slog.Int("line", line),
		))
	}
	attrs = append(attrs, args...)
	l.Error(msg, attrs...)
}

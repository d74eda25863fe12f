// Package log wraps log/slog with the conventions the binaries share: a
// component attribute on every record, level parsing for LOG_LEVEL, and
// a process-wide default.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with the component it belongs to. The
// tag is baked into the handler chain, so records written through this
// logger, and through slog's default once SetDefault has run, all carry
// it.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// New builds a component-tagged logger. Without an explicit handler it
// writes text records to stderr, keeping stdout free for command
// output.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}

	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// ParseLevel maps a configured level name to a slog.Level. Unknown
// names fall back to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes the process-wide slog default through this logger,
// so package-level slog calls in the services carry the component too.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

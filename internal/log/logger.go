// Package log wraps log/slog with a component field and request-scoped
// loggers carried in the context.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger that remembers which component it belongs to.
type Logger struct {
	*slog.Logger
	// base carries the same attributes minus the component.
	base      *slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// Output defaults to stdout. Ignored when Handler is set.
	Output  io.Writer
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

// New builds a text-handler logger with the component attached once.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	base := slog.New(handler)
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

// With returns a logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.baseLogger().With(args...), component: l.component}
}

// WithComponent returns a logger for a different component, keeping any
// attributes added with With.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.baseLogger()
	return &Logger{Logger: base.With(FieldComponent, component), base: base, component: component}
}

func (l *Logger) baseLogger() *slog.Logger {
	if l.base != nil {
		return l.base
	}
	return l.Logger
}

// Base returns the logger without the component attribute, for packages
// that take a *slog.Logger and attach their own component.
func (l *Logger) Base() *slog.Logger {
	return l.baseLogger()
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the process-wide slog default. The default
// carries no component; call sites add their own.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.baseLogger())
}

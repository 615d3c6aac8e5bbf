// Package logging builds the process logger. Everything is written to the
// given writer (stderr in production) because stdout carries the MCP stream.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/chainguard-dev/clog"
)

// ParseLevel maps a config string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger bundles the clog logger with its handler so other libraries that
// want a stdlib *log.Logger can share the same sink.
type Logger struct {
	*clog.Logger
	handler slog.Handler
}

// New creates a text logger writing to w at the given level.
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: clog.New(h), handler: h}, nil
}

// WithContext attaches the logger to ctx for clog.FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return clog.WithLogger(ctx, l.Logger)
}

// StdLogger returns a *log.Logger that writes error-level records.
func (l *Logger) StdLogger() *log.Logger {
	return slog.NewLogLogger(l.handler, slog.LevelError)
}

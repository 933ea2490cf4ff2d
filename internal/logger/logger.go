package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"pr-reminder/internal/config"
)

// Init builds the logger described by cfg and installs it as the slog default.
// With no file and stdout disabled, logs go to stderr.
func Init(cfg config.Log) error {
	logger, err := New(cfg, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// New builds a logger writing to a rotating file and, if enabled, to stdout.
func New(cfg config.Log, stdout io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: getLogLevel(cfg.Level)}
	var handlers []slog.Handler

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		handlers = append(handlers, newHandler(cfg.Format, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}, opts))
	}

	if cfg.Stdout {
		handlers = append(handlers, newHandler(cfg.Format, stdout, opts))
	}

	switch len(handlers) {
	case 0:
		return slog.New(newHandler(cfg.Format, os.Stderr, opts)), nil
	case 1:
		return slog.New(handlers[0]), nil
	default:
		return slog.New(&MultiHandler{handlers: handlers}), nil
	}
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// MultiHandler writes to multiple handlers
type MultiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the given level
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to every enabled handler and combines their errors.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			err = multierr.Append(err, handler.Handle(ctx, r.Clone()))
		}
	}
	return err
}

// WithAttrs returns a new handler with the given attributes
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

// WithGroup returns a new handler with the given group
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

// getLogLevel converts string level to slog.Level
func getLogLevel(level string) slog.Level {
	switch level {
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

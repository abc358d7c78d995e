// Package logging sets up the server and send id trace loggers. Log files
// are rotated by size and once at every start.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"swiftgo/pkg/config"
)

// Loggers are the configured loggers. The server logger is installed as the
// slog default.
type Loggers struct {
	// Trace receives send id trace dumps, file only.
	Trace *slog.Logger
	// Capture keeps the latest server log lines for the API.
	Capture *LogCaptureWriter

	closers []io.Closer
}

// Close flushes and closes the log files.
func (l *Loggers) Close() {
	for _, c := range l.closers {
		c.Close()
	}
}

// Init initializes the logging system based on configuration.
func Init(cfg *config.LogConfig) (*Loggers, error) {
	l := &Loggers{Capture: NewLogCaptureWriter(100)}

	serverFile, err := openRotating(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	l.closers = append(l.closers, serverFile)
	slog.SetDefault(slog.New(serverHandler(serverFile, l.Capture, parseLevel(cfg.Server.Level))))

	traceFile, err := openRotating(cfg.Trace)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to setup trace logger: %w", err)
	}
	l.closers = append(l.closers, traceFile)
	l.Trace = slog.New(slog.NewJSONHandler(traceFile, &slog.HandlerOptions{Level: parseLevel(cfg.Trace.Level)}))

	return l, nil
}

// openRotating opens a size rotated log file and starts a fresh file when
// an old one exists.
func openRotating(s config.LogSettings) (*lumberjack.Logger, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, err
	}
	w := &lumberjack.Logger{
		Filename:   s.Path,
		MaxSize:    max(s.MaxSizeMB, 1), // MB
		MaxBackups: s.MaxBackups,
	}
	if fi, err := os.Stat(s.Path); err == nil && fi.Size() > 0 {
		if err := w.Rotate(); err != nil {
			return nil, fmt.Errorf("rotate %s: %w", s.Path, err)
		}
	}
	return w, nil
}

func serverHandler(file io.Writer, capture io.Writer, level slog.Level) slog.Handler {
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	// Console Handler - only INFO and up
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: max(level, slog.LevelInfo),
	})
	captureHandler := slog.NewTextHandler(capture, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &multiHandler{handlers: []slog.Handler{fileHandler, consoleHandler, captureHandler}}
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

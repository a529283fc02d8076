// Package logging builds the structured logger shared by planr's components.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ParseLevel maps a configured level name to a slog level and its canonical name.
func ParseLevel(input string) (slog.Level, string, error) {
	level := strings.ToLower(strings.TrimSpace(input))
	switch level {
	case "", "info":
		return slog.LevelInfo, "info", nil
	case "debug":
		return slog.LevelDebug, "debug", nil
	case "warn", "warning":
		return slog.LevelWarn, "warn", nil
	case "error", "err":
		return slog.LevelError, "error", nil
	default:
		return slog.LevelInfo, "", fmt.Errorf("unsupported log level %q", input)
	}
}

// Logger is a slog.Logger bound to a destination that may need closing.
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
}

// New returns a logger writing text records to w.
func New(w io.Writer, level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Open creates a logger at the given level. An empty path logs to stderr;
// otherwise the file is appended to and its parent directories created.
func Open(path, level string) (*Logger, error) {
	lvl, _, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return New(os.Stderr, lvl), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := New(f, lvl)
	l.file = f
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, slog.LevelError+1)
}

// Close closes the log file. Safe to call more than once and on stderr loggers.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

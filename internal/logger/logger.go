// Package logger holds the process-wide structured logger. It discards all
// output until Init is called, or until ARENAKIT_LOG_ALLOC is set in the
// environment, in which case debug records go to stderr from startup.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// EnvAllocTrace enables allocator debug tracing on stderr when non-empty.
const EnvAllocTrace = "ARENAKIT_LOG_ALLOC"

// L is the global logger instance. It's initialized to discard all output by default.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	mu      sync.Mutex
	closeFn = func() error { return nil }
)

func init() {
	if os.Getenv(EnvAllocTrace) != "" {
		L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Path    string     // Log file path. Default: stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo
	JSON    bool       // Emit JSON records instead of key=value text
	Writer  io.Writer  // Overrides Path when set (tests)
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	_ = closeFn()
	closeFn = func() error { return nil }

	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	var w io.Writer = os.Stderr
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.Path != "":
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		w = f
		closeFn = f.Close
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(w, hopts))
	} else {
		L = slog.New(slog.NewTextHandler(w, hopts))
	}
	return nil
}

// Close releases the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFn()
	closeFn = func() error { return nil }
	return err
}

// Enabled reports whether records at level would be emitted.
func Enabled(level slog.Level) bool {
	return L.Enabled(context.Background(), level)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }

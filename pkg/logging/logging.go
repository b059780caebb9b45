// Package logging configures structured logging for log/slog.
//
// Terminals get colored output from tint; LOG_FORMAT=json switches to
// slog's JSON handler for log shippers.
//
// Usage:
//
//	logger := logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup builds a logger writing to stderr, installs it as the slog default
// and returns it.
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stderr, ParseLevel(level), format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w. format is "json" or anything else for tint.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps debug, warn and error to their levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

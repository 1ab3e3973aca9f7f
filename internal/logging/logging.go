// Package logging sets up the slog console handler shared by all binaries.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

func LevelFromString(str string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case slog.LevelDebug.String():
		return slog.LevelDebug
	case slog.LevelInfo.String():
		return slog.LevelInfo
	case slog.LevelWarn.String(), "WARNING":
		return slog.LevelWarn
	case slog.LevelError.String():
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsLevel reports whether str names one of the slog levels.
func IsLevel(str string) bool {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	default:
		return false
	}
}

// New returns a tint console logger writing to w.
func New(w io.Writer, level string, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      LevelFromString(level),
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
}

// Setup installs a console logger as the slog default and returns it.
func Setup(w io.Writer, level string, noColor bool) *slog.Logger {
	logger := New(w, level, noColor)
	slog.SetDefault(logger)
	return logger
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package main

import (
	"io"
	"log/slog"
	"os"
)

// buildLogger constructs a slog.Logger for the given format ("text" or
// "json") and level name, writing to stderr. Unlike a package-level
// singleton, the logger is built once in main and passed explicitly to
// every collaborator that needs it.
func buildLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return newLogger(format, lvl, os.Stderr)
}

func newLogger(format string, level slog.Level, w io.Writer) *slog.Logger {
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}

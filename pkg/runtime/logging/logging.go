package logging

import (
	"os"
	"strings"
	"time"

	"log/slog"

	"github.com/lmittmann/tint"
)

// New returns a structured logger writing to stderr. Stdout carries the MCP
// protocol, so nothing may log there. format can be "json", "text" or
// "pretty".
func New(level, format string) *slog.Logger {
	lvl := parseLevel(level)
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	case "pretty":
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
		}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

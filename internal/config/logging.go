package config

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a raw level string to a slog level, defaulting to info.
func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// NewLogHandler builds a slog handler for the configured format. The level
// is taken from a LevelVar so the daemon can adjust it on config reload.
func NewLogHandler(w io.Writer, cfg LoggingConfig, level *slog.LevelVar) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

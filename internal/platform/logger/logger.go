// Package logger builds the process logger: structured JSON on stdout.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog logger at the named level (debug, info, warn,
// error). Unknown names fall back to info so a typo cannot silence the
// process.
func New(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger writing text records to stdout. The level
// string comes straight from configuration; anything unrecognized falls back
// to info so a misconfigured deployment still logs.
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a text slog.Logger writing to stdout whose level can be changed at
// runtime through the returned LevelVar.
func New(level string) (*slog.Logger, *slog.LevelVar) {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) (*slog.Logger, *slog.LevelVar) {
	levelVar := &slog.LevelVar{}
	levelVar.Set(ParseLevel(level))

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelVar,
	}))
	return logger, levelVar
}

// ParseLevel converts a string log level to slog.Level.
// Accepts: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo if the level is not recognized.
func ParseLevel(level string) slog.Level {
	l, ok := LookupLevel(level)
	if !ok {
		return slog.LevelInfo
	}
	return l
}

// LookupLevel is ParseLevel that reports unrecognized names instead of
// falling back to info.
func LookupLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

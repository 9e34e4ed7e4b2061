package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a colored console logger.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// FromEnv builds a stderr logger at the level named by VOICEBALLOON_LOG_LEVEL.
func FromEnv() *slog.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("VOICEBALLOON_LOG_LEVEL")))
}

// ParseLevel maps debug, info, warn and error to slog levels, defaulting to
// info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

package logging

import (
	"log/slog"
	"strings"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// parseLevel converts string level to slog.Level.
func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "critical", "fatal":
		return LevelCritical, true
	default:
		return slog.LevelInfo, false
	}
}

// LevelFromString converts a level name to slog.Level, defaulting to info.
func LevelFromString(level string) slog.Level {
	l, _ := parseLevel(level)
	return l
}

// ValidLevel reports whether level names a known level.
func ValidLevel(level string) bool {
	_, ok := parseLevel(level)
	return ok
}

// LevelName returns the name written to log lines for l.
func LevelName(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARNING"
	case slog.LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return l.String()
	}
}

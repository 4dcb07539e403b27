package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// LogDirName is the log directory under the application root.
	LogDirName = "logs"
	// LogFileName is the file shared by every logger of a registry.
	LogFileName = "mcp_actions.log"

	// DefaultMaxBytes is the rotation threshold (10 MiB).
	DefaultMaxBytes int64 = 10 * 1024 * 1024
	// DefaultMaxFiles is the number of rotated files kept.
	DefaultMaxFiles = 5
)

// LogDir returns <appRoot>/logs.
func LogDir(appRoot string) string {
	return filepath.Join(appRoot, LogDirName)
}

// LogPath returns <appRoot>/logs/mcp_actions.log.
func LogPath(appRoot string) string {
	return filepath.Join(LogDir(appRoot), LogFileName)
}

// FindLogFile attempts to find the log file for viewing.
// Priority:
// 1. Explicit path (if provided)
// 2. <appRoot>/logs/mcp_actions.log
//
// Returns an error if no log file is found.
func FindLogFile(explicit, appRoot string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := LogPath(appRoot)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("no log file found. The server may not have run yet.\nExpected at: %s", path)
}

package screenshot

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
)

const (
	// FilePrefix starts every screenshot artifact name.
	FilePrefix = "screenshot_"
	// FileExt is the only artifact extension considered by scans.
	FileExt = ".png"

	indexSegment    = 3
	timestampLayout = "20060102_150405"
)

// ScanResult summarizes a screenshots directory scan.
type ScanResult struct {
	// Max is the highest index found, 0 if none.
	Max uint64
	// Matched is the number of files whose index parsed.
	Matched int
	// Skipped lists screenshot-like names whose index could not be parsed.
	Skipped []string
}

// ScanDir lists dir and returns the highest artifact index in it.
// Files without the screenshot prefix and extension are ignored; files with
// them but a malformed index are skipped and reported in Skipped. A listing
// failure is returned as an ERR_207_SCAN_FAILED error.
func ScanDir(dir string, logger *slog.Logger) (ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ScanResult{}, shoterrors.New(shoterrors.ErrCodeScanFailed, "failed to list screenshots directory", err).
			WithDetail("dir", dir).
			WithSuggestion("check that the directory is readable")
	}

	var result ScanResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileExt) {
			continue
		}

		index, ok := ParseIndex(name)
		if !ok {
			result.Skipped = append(result.Skipped, name)
			logger.Debug("skipping malformed screenshot name", slog.String("file", name))
			continue
		}

		result.Matched++
		if index > result.Max {
			result.Max = index
		}
	}

	return result, nil
}

// ParseIndex extracts the index from an artifact filename: the fourth
// underscore-separated segment, which must be an unsigned decimal literal.
// It does not check prefix or extension.
func ParseIndex(name string) (uint64, bool) {
	parts := strings.Split(name, "_")
	if len(parts) <= indexSegment {
		return 0, false
	}

	segment := parts[indexSegment]
	if !isDigits(segment) {
		return 0, false
	}

	index, err := strconv.ParseUint(segment, 10, 64)
	if err != nil {
		// overflow
		return 0, false
	}
	return index, true
}

// Filename builds an artifact name for index at now.
func Filename(index uint64, now time.Time, uniqueID string) string {
	return FilePrefix + now.Format(timestampLayout) + "_" +
		strconv.FormatUint(index, 10) + "_" + uniqueID + FileExt
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var se *ShotError
	if !errors.As(err, &se) {
		se = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", se.Error()))
	if se.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", se.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", se.Code))

	return sb.String()
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	var se *ShotError
	if !errors.As(err, &se) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", se.Code,
		"message", se.Message,
		"category", string(se.Category),
		"severity", string(se.Severity),
	}
	if se.Cause != nil {
		attrs = append(attrs, "cause", se.Cause.Error())
	}
	for k, v := range se.Details {
		attrs = append(attrs, "detail_"+k, v)
	}

	return attrs
}

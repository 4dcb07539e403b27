package errors

import (
	"errors"
	"fmt"
)

// ShotError is the structured error type for shotmcp.
// It provides rich context for error handling, logging, and user presentation.
type ShotError struct {
	// Code is the unique error code (e.g., "ERR_207_SCAN_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ShotError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ShotError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ShotError with the same code,
// so errors.Is works against code sentinels.
func (e *ShotError) Is(target error) bool {
	if t, ok := target.(*ShotError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ShotError) WithDetail(key, value string) *ShotError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ShotError) WithSuggestion(suggestion string) *ShotError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ShotError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *ShotError {
	return &ShotError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a ShotError from an existing error.
// The error's message becomes the ShotError message.
func Wrap(code string, err error) *ShotError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ShotError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ShotError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ShotError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var se *ShotError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first ShotError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *ShotError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from the first ShotError in the chain.
func GetCategory(err error) Category {
	var se *ShotError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

package errors

import (
	"fmt"
)

// HybridError is the structured error type for mcp-hybrid-search.
// It provides rich context for error handling, logging, and user presentation.
type HybridError struct {
	// Code is the unique error code (e.g., "ERR_301_EMBEDDING_API").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *HybridError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *HybridError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with HybridError.
func (e *HybridError) Is(target error) bool {
	if t, ok := target.(*HybridError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *HybridError) WithDetail(key, value string) *HybridError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *HybridError) WithSuggestion(suggestion string) *HybridError {
	e.Suggestion = suggestion
	return e
}

// New creates a new HybridError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *HybridError {
	return &HybridError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a HybridError from an existing error.
// The error's message becomes the HybridError message.
func Wrap(code string, err error) *HybridError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *HybridError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *HybridError {
	return New(ErrCodeFileUnreadable, message, cause)
}

// NetworkError creates a network-related error.
// Network errors are typically retryable.
func NetworkError(message string, cause error) *HybridError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *HybridError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *HybridError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a HybridError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if he, ok := err.(*HybridError); ok {
		return he.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if he, ok := err.(*HybridError); ok {
		return he.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a HybridError.
// Returns empty string if not a HybridError.
func GetCode(err error) string {
	if he, ok := err.(*HybridError); ok {
		return he.Code
	}
	return ""
}

// GetCategory extracts the category from a HybridError.
// Returns empty string if not a HybridError.
func GetCategory(err error) Category {
	if he, ok := err.(*HybridError); ok {
		return he.Category
	}
	return ""
}

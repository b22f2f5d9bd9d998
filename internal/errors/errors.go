// Package errors provides a lightweight structured error type (StatebusError)
// for category-based classification in the transport layer and CLI.
package errors

import (
	std "errors"
	"fmt"
)

// ErrorCategory classifies a StatebusError.
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Cross-process channel errors
	CategoryTransport ErrorCategory = "transport"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// StatebusError is a structured error with category, severity, and context.
type StatebusError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StatebusError.
type ContextFields map[string]any

// Error implements the error interface.
func (e *StatebusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping.
func (e *StatebusError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *StatebusError) WithContext(key string, value any) *StatebusError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StatebusError.
func New(category ErrorCategory, severity ErrorSeverity, message string) *StatebusError {
	return &StatebusError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new StatebusError that wraps an existing error.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *StatebusError {
	return &StatebusError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// CategoryOf returns the category of err if it is (or wraps) a StatebusError,
// and CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var sbe *StatebusError
	if std.As(err, &sbe) {
		return sbe.Category
	}
	return CategoryInternal
}

// IsTransport reports whether err originated in the cross-process channel.
func IsTransport(err error) bool {
	return CategoryOf(err) == CategoryTransport
}

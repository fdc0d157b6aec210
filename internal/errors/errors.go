// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (precondition,
// backend availability, result mismatch, configuration) and for carrying
// the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types carrying a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess          = 0   // Indicates successful execution.
	ExitErrorGeneric     = 1   // Indicates a generic error.
	ExitErrorTimeout     = 2   // Indicates the operation timed out.
	ExitErrorMismatch    = 3   // Indicates the result differs from the expected value or another backend.
	ExitErrorConfig      = 4   // Indicates a configuration or precondition error.
	ExitErrorUnavailable = 5   // Indicates the execution backend could not be reached.
	ExitErrorCanceled    = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// DefaultBackendFallback is the backend suggested when the requested one is
// unavailable. The emulator needs no device and is always registered.
const DefaultBackendFallback = "emulator"

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// PreconditionError reports a violated precondition of the reduction: a batch
// size that is not a power of two, an input sequence of the wrong length, or an
// input value that does not fit the declared input width. It is always raised
// before any computation is submitted.
type PreconditionError struct {
	// Field is the name of the offending parameter (e.g. "batch_size", "inputs[3]").
	Field string
	// Message describes why the precondition does not hold.
	Message string
	// Value is the offending value (optional, may be nil).
	Value any
}

// Error returns the error message for a PreconditionError.
func (e PreconditionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("precondition violated for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("precondition violated: %s", e.Message)
}

// NewPreconditionError creates a new PreconditionError.
//
// Parameters:
//   - field: The name of the parameter that failed the check.
//   - message: A description of why the check failed.
//   - value: The offending value (optional).
//
// Returns:
//   - error: A new PreconditionError instance.
func NewPreconditionError(field, message string, value any) error {
	return PreconditionError{Field: field, Message: message, Value: value}
}

// BackendUnavailableError reports that an execution backend could not be
// reached or initialized. It is not recoverable locally and is never retried;
// Hint tells the user how to proceed (typically switching to the emulator).
type BackendUnavailableError struct {
	// Backend is the name of the backend that was requested.
	Backend string
	// Hint is a user-facing suggestion, e.g. "retry with -backend=emulator".
	Hint string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a BackendUnavailableError.
func (e BackendUnavailableError) Error() string {
	msg := fmt.Sprintf("backend %q unavailable", e.Backend)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e BackendUnavailableError) Unwrap() error { return e.Cause }

// NewBackendUnavailableError creates a BackendUnavailableError with the
// default hint pointing at the emulator backend.
//
// Parameters:
//   - backend: The requested backend name.
//   - cause: The underlying error (can be nil).
//
// Returns:
//   - error: A new BackendUnavailableError instance.
func NewBackendUnavailableError(backend string, cause error) error {
	return BackendUnavailableError{
		Backend: backend,
		Hint:    fmt.Sprintf("retry with -backend=%s", DefaultBackendFallback),
		Cause:   cause,
	}
}

// IsBackendUnavailable reports whether err carries a BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var target BackendUnavailableError
	return errors.As(err, &target)
}

// IsPrecondition reports whether err carries a PreconditionError.
func IsPrecondition(err error) bool {
	var target PreconditionError
	return errors.As(err, &target)
}

// MismatchError reports that a reduction executed but produced a value that
// differs from the expected one (or from another backend's result).
type MismatchError struct {
	// Source names what the result was compared against ("expected" or a backend name).
	Source string
	// Expected is the reference value in "(re,im)" notation.
	Expected string
	// Found is the computed value in "(re,im)" notation.
	Found string
}

// Error returns the error message for a MismatchError.
func (e MismatchError) Error() string {
	return fmt.Sprintf("result mismatch against %s: expected %s, found %s", e.Source, e.Expected, e.Found)
}

// BackendError encapsulates a failure reported by a backend after submission,
// preserving the original cause.
type BackendError struct {
	// Backend is the name of the backend that failed.
	Backend string
	// Cause is the underlying error that triggered this backend error.
	Cause error
}

// Error returns the error message including the backend name.
func (e BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e BackendError) Unwrap() error { return e.Cause }

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
// It combines the descriptive message and the underlying cause if present.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

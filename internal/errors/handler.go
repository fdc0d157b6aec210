package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Red() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Red() string    { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleReductionError formats and prints error messages related to a failed
// reduction. It distinguishes between timeouts, cancellations, violated
// preconditions, unavailable backends and wrong results so that the user can
// tell "could not run" apart from "ran but produced the wrong value".
//
// Parameters:
//   - err: The error that occurred.
//   - duration: The duration of the reduction before it failed.
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleReductionError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}

	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var (
		precondition PreconditionError
		unavailable  BackendUnavailableError
		mismatch     MismatchError
		config       ConfigError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &unavailable):
		fmt.Fprintf(out, "Status: Failure (Backend unavailable). %v\n", err)
		if unavailable.Hint != "" {
			fmt.Fprintf(out, "Hint: %s%s%s\n", colors.Yellow(), unavailable.Hint, colors.Reset())
		}
		return ExitErrorUnavailable
	case errors.As(err, &precondition):
		fmt.Fprintf(out, "Status: Failure (Invalid input). %v\n", err)
		return ExitErrorConfig
	case errors.As(err, &config):
		fmt.Fprintf(out, "Status: Failure (Configuration). %v\n", err)
		return ExitErrorConfig
	case errors.As(err, &mismatch):
		fmt.Fprintf(out, "%sStatus: FAILED%s. Expected %s, found %s (compared against %s)%s.\n",
			colors.Red(), colors.Reset(), mismatch.Expected, mismatch.Found, mismatch.Source, msgSuffix)
		return ExitErrorMismatch
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}

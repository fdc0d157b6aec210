// Package unroll provides the structural iteration primitive of the reduction
// tree: an action invoked once per index of a half-open range, in increasing
// order. Step and StepE run the action directly; Emit writes one source
// statement per index so that a generator can produce straight-line code with
// no loop left in it.
package unroll

import (
	"fmt"
	"io"
)

// Step invokes action(i) for every i in [begin, end), in increasing order.
// When begin >= end it does nothing.
func Step(begin, end int, action func(i int)) {
	for i := begin; i < end; i++ {
		action(i)
	}
}

// StepE is like Step but stops at the first error returned by action.
func StepE(begin, end int, action func(i int) error) error {
	for i := begin; i < end; i++ {
		if err := action(i); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of invocations Step(begin, end, ...) performs.
func Count(begin, end int) int {
	if end <= begin {
		return 0
	}
	return end - begin
}

// Emit writes line(i) followed by a newline for every i in [begin, end).
// The index is baked into each written line, which is how generated kernels
// get their fully expanded form.
//
// Parameters:
//   - w: The destination of the generated statements.
//   - begin: The first index.
//   - end: One past the last index.
//   - line: Renders the statement for one index.
//
// Returns:
//   - error: The first write error, if any.
func Emit(w io.Writer, begin, end int, line func(i int) string) error {
	return StepE(begin, end, func(i int) error {
		_, err := fmt.Fprintln(w, line(i))
		return err
	})
}

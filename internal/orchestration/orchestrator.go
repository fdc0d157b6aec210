// Package orchestration runs one reduction graph on one or more backends
// concurrently, cross-checks their results and checks the agreed value
// against an expected one.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fxtree/internal/cli"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/reduction"
)

// ReductionResult encapsulates the outcome of a single reducer run. It serves
// as a standardized container for results from different backends,
// facilitating comparison and reporting.
type ReductionResult struct {
	// Name is the backend that ran the reduction.
	Name string
	// Result is the reduction result. Its Value is the zero Complex if Err is set.
	Result reduction.Result
	// Duration is the time taken by the reducer, input checks included.
	Duration time.Duration
	// Err contains any error that occurred during the reduction.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of dropping updates when the
// UI is slow to consume them.
const ProgressBufferMultiplier = 5

// ExecuteReductions orchestrates the concurrent execution of one graph on
// several reducers.
//
// Every reducer receives the same inputs. Failures are recorded per reducer
// and never cancel the others.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - reducers: The reducers to run.
//   - inputs: The ordered inputs.
//   - out: The io.Writer for displaying progress updates.
//   - observers: Additional progress observers (logging, metrics).
//
// Returns:
//   - []ReductionResult: The results, in the order of reducers.
func ExecuteReductions(ctx context.Context, reducers []reduction.Reducer, inputs []fixed.Complex, out io.Writer, observers ...reduction.ProgressObserver) []ReductionResult {
	var g errgroup.Group
	results := make([]ReductionResult, len(reducers))
	progressChan := make(chan reduction.ProgressUpdate, len(reducers)*ProgressBufferMultiplier)

	subject := reduction.NewProgressSubject()
	subject.Register(reduction.NewChannelObserver(progressChan))
	for _, o := range observers {
		subject.Register(o)
	}

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(reducers), out)

	for i, r := range reducers {
		g.Go(func() error {
			startTime := time.Now()
			res, err := r.ReduceWithObservers(ctx, subject, i, inputs)
			results[i] = ReductionResult{
				Name: r.Name(), Result: res, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeComparisonResults processes the results of one or more backends.
//
// With several results it sorts them by execution time, displays a
// comparative table and validates consistency across successful runs. The
// first successful result is returned for display.
//
// Parameters:
//   - results: The slice of reduction results to analyze.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - ReductionResult: The fastest successful result (zero if none).
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []ReductionResult, out io.Writer) (ReductionResult, int) {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstValid *ReductionResult
	var firstError error
	for i := range results {
		if results[i].Err != nil {
			if firstError == nil {
				firstError = results[i].Err
			}
		} else if firstValid == nil {
			firstValid = &results[i]
		}
	}

	if len(results) > 1 {
		printSummary(results, out)
	}

	if firstValid == nil {
		if len(results) > 1 {
			fmt.Fprintf(out, "\nGlobal Status: Failure. No backend could complete the reduction.\n")
		}
		var duration time.Duration
		if len(results) > 0 {
			duration = results[0].Duration
		}
		return ReductionResult{}, apperrors.HandleReductionError(firstError, duration, out, cli.CLIColorProvider{})
	}

	for _, res := range results {
		if res.Err == nil && !res.Result.Value.Equal(firstValid.Result.Value) {
			fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! An inconsistency was detected between the results of the backends.\n")
			mismatch := apperrors.MismatchError{
				Source:   firstValid.Name,
				Expected: firstValid.Result.Value.String(),
				Found:    res.Result.Value.String(),
			}
			return *firstValid, apperrors.HandleReductionError(mismatch, res.Duration, out, cli.CLIColorProvider{})
		}
	}

	if len(results) > 1 {
		fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	}
	return *firstValid, apperrors.ExitSuccess
}

func printSummary(results []ReductionResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sBackend%s\t%sDuration%s\t%sStatus%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset())

	for _, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", cli.ColorRed(), res.Err, cli.ColorReset())
		} else {
			status = fmt.Sprintf("%s✅ Success%s", cli.ColorGreen(), cli.ColorReset())
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			cli.ColorBlue(), res.Name, cli.ColorReset(),
			cli.ColorYellow(), duration, cli.ColorReset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

// CheckExpected compares a result against the expected value and prints
// the expected and found values followed by PASSED or FAILED.
//
// Parameters:
//   - expected: The expected value.
//   - found: The computed value.
//   - out: The io.Writer for the report.
//
// Returns:
//   - error: A MismatchError if the values differ, nil otherwise.
func CheckExpected(expected, found fixed.Complex, out io.Writer) error {
	if cli.DisplayCheck(expected, found, out) {
		return nil
	}
	return apperrors.MismatchError{
		Source:   "expected",
		Expected: expected.String(),
		Found:    found.String(),
	}
}

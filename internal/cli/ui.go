// The cli package provides functions for building a command-line interface (CLI)
// for the reduction application. It handles the asynchronous display of layer
// progress and formats the results for a clear and readable presentation.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"

	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
	// LayerPreview is the number of values printed per layer before eliding
	// the rest in verbose output.
	LayerPreview = 8
)

// Color functions return ANSI escape codes from the current theme.
// They delegate to the ui package to reduce coupling.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return ui.GetCurrentTheme().Underline }

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of the `DisplayProgress` function from a
// specific spinner implementation.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState encapsulates the aggregated progress of concurrent reducers.
// Each reducer reports the fraction of layers it has completed; the display
// shows their average.
type ProgressState struct {
	progresses  []float64
	numReducers int
}

// NewProgressState creates and initializes a new ProgressState.
//
// Parameters:
//   - numReducers: The number of reducers to track.
//
// Returns:
//   - *ProgressState: A pointer to the new progress state object.
func NewProgressState(numReducers int) *ProgressState {
	return &ProgressState{
		progresses:  make([]float64, numReducers),
		numReducers: numReducers,
	}
}

// Update records a new progress value for a specific reducer. Out-of-range
// indices are ignored.
//
// Parameters:
//   - index: The index of the reducer (0 to numReducers-1).
//   - value: The progress value (0.0 to 1.0).
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage computes the average progress across all tracked reducers.
//
// Returns:
//   - float64: The average progress (0.0 to 1.0).
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numReducers == 0 {
		return 0.0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numReducers)
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0.0), 1.0)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

func progressLabel(numReducers int) string {
	if numReducers > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress manages the asynchronous display of a spinner and progress bar.
// It is designed to run in a dedicated goroutine and returns once progressChan
// is closed, after printing a final 100% line.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numReducers: The number of reducers contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan reduction.ProgressUpdate, numReducers int, out io.Writer) {
	defer wg.Done()
	if numReducers <= 0 {
		for range progressChan { // Drain the channel
		}
		return
	}

	state := NewProgressWithETA(numReducers)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := progressLabel(numReducers)
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "%s: %6.2f%% [%s] ETA: %s\n", label, 100.0, progressBar(1.0, ProgressBarWidth), "< 1s")
				return
			}
			state.UpdateWithETA(update.ReducerIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(" " + label + ": " + FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth))
		}
	}
}

// DisplayResult formats and prints the final reduction result.
//
// Parameters:
//   - result: The reduction result.
//   - details: If true, prints the parts with separators and size metadata.
//   - out: The io.Writer for the output.
func DisplayResult(result reduction.Result, details bool, out io.Writer) {
	fmt.Fprintf(out, "Result: %s%s%s  %s\n", ColorGreen(), result.Value, ColorReset(), result.Format)
	if !details {
		return
	}

	fmt.Fprintf(out, "\n%s--- Detailed result analysis ---%s\n", ColorBold(), ColorReset())
	durationStr := FormatExecutionDuration(result.Duration)
	if result.Duration == 0 {
		durationStr = "< 1µs"
	}
	fmt.Fprintf(out, "Reduction time   : %s%s%s on %s\n", ColorGreen(), durationStr, ColorReset(), result.Backend)
	fmt.Fprintf(out, "Real part        : %s%s%s\n", ColorCyan(), humanize.BigComma(result.Value.Re()), ColorReset())
	fmt.Fprintf(out, "Imaginary part   : %s%s%s\n", ColorCyan(), humanize.BigComma(result.Value.Im()), ColorReset())
	used := fixed.Full([]fixed.Complex{result.Value}).Width()
	fmt.Fprintf(out, "Significant bits : %s%d%s of %d\n", ColorCyan(), used, ColorReset(), result.Format.Width)
}

// DisplayGraph prints the reduction plan.
func DisplayGraph(g *tree.Graph, out io.Writer) {
	fmt.Fprintf(out, "%s--- Reduction plan ---%s\n", ColorBold(), ColorReset())
	fmt.Fprintln(out, g.String())
	fmt.Fprintf(out, "%s multiplications over %s layers.\n", humanize.Comma(int64(g.NumOps())), humanize.Comma(int64(g.NumLayers())))
}

// DisplayLayers prints the values of every layer of a trace, eliding long
// layers to their first LayerPreview values.
//
// Parameters:
//   - trace: The per-layer values, layer 0 first.
//   - out: The io.Writer for the output.
func DisplayLayers(trace [][]fixed.Complex, out io.Writer) {
	fmt.Fprintf(out, "%s--- Layer values ---%s\n", ColorBold(), ColorReset())
	for l, values := range trace {
		if len(values) == 0 {
			continue
		}
		shown := values
		if len(shown) > LayerPreview {
			shown = shown[:LayerPreview]
		}
		parts := make([]string, len(shown))
		for i, v := range shown {
			parts[i] = v.String()
		}
		line := strings.Join(parts, " ")
		if len(values) > len(shown) {
			line += fmt.Sprintf(" ... (%d more)", len(values)-len(shown))
		}
		fmt.Fprintf(out, "layer %d %s%s%s: %s\n", l, ColorMagenta(), values[0].Format(), ColorReset(), line)
	}
}

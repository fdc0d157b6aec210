package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/config"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
)

// PrintExecutionConfig displays the current execution configuration to the user.
// It shows the shape of the reduction, the width of every layer, the timeout
// and environment details.
//
// Parameters:
//   - cfg: The application configuration.
//   - g: The reduction graph that will run.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, g *tree.Graph, out io.Writer) {
	m := g.Model()
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Reducing %s%d%s values of %s with a timeout of %s%s%s.\n",
		ColorMagenta(), m.BatchSize(), ColorReset(), g.InputFormat(), ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "Layer widths (%s growth, overflow=%s): %s%v%s -> %s.\n",
		m.Growth(), g.Overflow(), ColorCyan(), m.Widths(), ColorReset(), g.OutputFormat())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
}

// PrintDevice displays the device a backend runs on.
func PrintDevice(d backend.Device, out io.Writer) {
	writeOut(out, "Running on device: %s%s%s\n", ColorCyan(), d, ColorReset())
}

// PrintExecutionMode displays the execution mode (single backend vs comparison).
//
// Parameters:
//   - names: The names of the backends that will run.
//   - out: The writer for standard output.
func PrintExecutionMode(names []string, out io.Writer) {
	var modeDesc string
	switch len(names) {
	case 0:
		modeDesc = "No backend"
	case 1:
		modeDesc = fmt.Sprintf("Single reduction on the %s%s%s backend", ColorGreen(), names[0], ColorReset())
	default:
		modeDesc = fmt.Sprintf("Parallel comparison of %d backends", len(names))
	}
	writeOut(out, "Execution mode: %s.\n", modeDesc)
	writeOut(out, "\n--- Starting Execution ---\n")
}

// DisplayCheck prints the outcome of comparing a result against the expected
// value and reports whether they are equal. Only values are compared; widths
// may differ.
//
// Parameters:
//   - expected: The expected value.
//   - found: The computed value.
//   - out: The writer for standard output.
//
// Returns:
//   - bool: true if the values are equal.
func DisplayCheck(expected, found fixed.Complex, out io.Writer) bool {
	writeOut(out, "Expected: %s\n", expected)
	writeOut(out, "Found:    %s\n", found)
	if expected.Equal(found) {
		writeOut(out, "%sPASSED%s\n", ColorGreen(), ColorReset())
		return true
	}
	writeOut(out, "%sFAILED%s\n", ColorRed(), ColorReset())
	return false
}

// writeOut writes a formatted string to the output writer.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

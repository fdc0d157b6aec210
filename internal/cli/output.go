// Package cli provides output utilities for exporting reduction results.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/tree"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// Quiet mode prints the bare result only.
	Quiet bool
	// Details prints the analysis block after the result.
	Details bool
	// JSON prints the result as a JSON document.
	JSON bool
}

// Report is the JSON rendering of a reduction, shared by -json, -output and
// the HTTP server.
type Report struct {
	Result     reduction.Result `json:"result"`
	Width      int              `json:"width"`
	InputWidth int              `json:"input_width"`
	BatchSize  int              `json:"batch_size"`
	Growth     string           `json:"growth"`
	Overflow   string           `json:"overflow"`
	Layers     []int            `json:"layers"`
	Expected   string           `json:"expected,omitempty"`
	Passed     *bool            `json:"passed,omitempty"`
}

// NewReport builds the JSON rendering of result computed on g.
func NewReport(result reduction.Result, g *tree.Graph) Report {
	m := g.Model()
	return Report{
		Result:     result,
		Width:      result.Format.Width,
		InputWidth: m.InputWidth(),
		BatchSize:  m.BatchSize(),
		Growth:     m.Growth().String(),
		Overflow:   g.Overflow().String(),
		Layers:     m.Widths(),
	}
}

// WithCheck records the outcome of an expected-value check.
func (r Report) WithCheck(expected string, passed bool) Report {
	r.Expected = expected
	r.Passed = &passed
	return r
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteResultToFile writes a reduction report to a file. A ".json" extension
// selects the JSON rendering; any other extension writes a commented text file.
//
// Parameters:
//   - report: The reduction report.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(report Report, config OutputConfig) (err error) {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if filepath.Ext(config.OutputFile) == ".json" {
		return report.WriteJSON(file)
	}

	fmt.Fprintf(file, "# Tree Reduction Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Backend: %s\n", report.Result.Backend)
	fmt.Fprintf(file, "# Duration: %s\n", report.Result.Duration)
	fmt.Fprintf(file, "# Shape: N=%d w=%d growth=%s\n", report.BatchSize, report.InputWidth, report.Growth)
	fmt.Fprintf(file, "# Width: %d\n", report.Width)
	fmt.Fprintf(file, "\n")
	_, err = fmt.Fprintf(file, "%s\n", report.Result.Value)
	return err
}

// FormatQuietResult formats a result for quiet mode output: "(re,im)".
func FormatQuietResult(result reduction.Result) string {
	return result.Value.String()
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, result reduction.Result) {
	fmt.Fprintln(out, FormatQuietResult(result))
}

// DisplayResultWithConfig displays a result with the given output configuration.
// This is a unified function that handles all output modes.
//
// Parameters:
//   - out: The output writer.
//   - report: The reduction report.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if JSON encoding or file output fails.
func DisplayResultWithConfig(out io.Writer, report Report, config OutputConfig) error {
	switch {
	case config.JSON:
		if err := report.WriteJSON(out); err != nil {
			return err
		}
	case config.Quiet:
		DisplayQuietResult(out, report.Result)
	default:
		DisplayResult(report.Result, config.Details, out)
	}

	if config.OutputFile != "" {
		if err := WriteResultToFile(report, config); err != nil {
			return err
		}
		if !config.Quiet && !config.JSON {
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
				ColorGreen(), ColorCyan(), config.OutputFile, ColorReset())
		}
	}
	return nil
}

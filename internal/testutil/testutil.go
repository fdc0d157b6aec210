// Package testutil provides fixtures shared by the reduction tests: sample
// batches, ready-built graphs and plain-text views of colored CLI output.
package testutil

import (
	"regexp"

	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

// SampleProduct is the full-precision product of SampleInputs.
const SampleProduct = "(40482624000,-3942432000)"

// Values builds values of the given width from interleaved real and
// imaginary parts. It panics if a part does not fit.
func Values(width int, parts ...int64) []fixed.Complex {
	out := make([]fixed.Complex, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		out = append(out, fixed.MustNew(width, parts[i], parts[i+1]))
	}
	return out
}

// SampleInputs returns the eight-value, 8-bit sample batch.
func SampleInputs() []fixed.Complex {
	return Values(8, 10, 20, 5, 10, -20, 20, 20, 4, 24, 3, 4, 3, 56, 2, 34, 24)
}

// Graph builds an exact-growth graph for the given shape.
func Graph(inputWidth, batchSize int, opts ...tree.Option) *tree.Graph {
	return tree.Build(widths.MustNew(inputWidth, batchSize, widths.GrowthExact), opts...)
}

// csi matches ANSI control sequences such as color and cursor codes.
var csi = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI returns s without ANSI control sequences, so that assertions on
// CLI output hold whatever the active theme.
func StripANSI(s string) string {
	return csi.ReplaceAllString(s, "")
}

//go:build gmp

package gmp

import (
	"context"
	"testing"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

func TestGMPBackendMatchesReference(t *testing.T) {
	t.Parallel()
	parts := []int64{10, 20, 5, 10, -20, 20, 20, 4, 24, 3, 4, 3, 56, 2, 34, 24}
	inputs := make([]fixed.Complex, 0, 8)
	for i := 0; i < len(parts); i += 2 {
		inputs = append(inputs, fixed.MustNew(8, parts[i], parts[i+1]))
	}

	for _, growth := range []widths.Growth{widths.GrowthExact, widths.GrowthLinear} {
		g := tree.Build(widths.MustNew(8, 8, growth), tree.WithOverflow(fixed.OverflowWrap))
		want, err := tree.Evaluate(g, inputs)
		if err != nil {
			t.Fatal(err)
		}
		got, err := New().Submit(context.Background(), backend.Request{Graph: g, Inputs: inputs})
		if err != nil {
			t.Fatalf("%s: Submit error = %v", growth, err)
		}
		if len(got) != 1 || !got[0].Identical(want) {
			t.Errorf("%s: got %v, want %v", growth, got, want)
		}
	}
}

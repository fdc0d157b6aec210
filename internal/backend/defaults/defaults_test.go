package defaults

import (
	"context"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

func values(width int, parts ...int64) []fixed.Complex {
	out := make([]fixed.Complex, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		out = append(out, fixed.MustNew(width, parts[i], parts[i+1]))
	}
	return out
}

// available returns every registered backend that can be constructed here.
func available(t *testing.T) []backend.Backend {
	t.Helper()
	var out []backend.Backend
	for _, info := range backend.List() {
		spec := info.Name
		if spec == "parallel" {
			spec = "parallel:workers=3,threshold=1"
		}
		b, err := backend.New(spec)
		if apperrors.IsBackendUnavailable(err) {
			continue
		}
		require.NoError(t, err, info.Name)
		out = append(out, b)
	}
	return out
}

func TestAllBackendsRegistered(t *testing.T) {
	t.Parallel()
	var names []string
	for _, info := range backend.List() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"compiled", "emulator", "gmp", "parallel"}, names)
}

func TestBackendScenarios(t *testing.T) {
	t.Parallel()
	sample := values(8, 10, 20, 5, 10, -20, 20, 20, 4, 24, 3, 4, 3, 56, 2, 34, 24)
	tests := []struct {
		name   string
		inputs []fixed.Complex
		want   string
	}{
		{"one times i", values(8, 1, 0, 0, 1), "(0,1)"},
		{"sample", sample, "(40482624000,-3942432000)"},
	}
	for _, b := range available(t) {
		for _, tt := range tests {
			t.Run(b.Name()+"/"+tt.name, func(t *testing.T) {
				t.Parallel()
				g := tree.Build(widths.MustNew(8, len(tt.inputs), widths.GrowthExact))
				out, err := b.Submit(context.Background(), backend.Request{Graph: g, Inputs: tt.inputs})
				require.NoError(t, err)
				require.Len(t, out, 1)
				assert.Equal(t, tt.want, out[0].String())
				assert.Equal(t, g.OutputFormat().Width, out[0].Width())
			})
		}
	}
}

func TestCompiledBackendUnavailableForUnknownShape(t *testing.T) {
	t.Parallel()
	b, err := backend.New("compiled")
	require.NoError(t, err)
	g := tree.Build(widths.MustNew(8, 4, widths.GrowthExact))
	_, err = b.Submit(context.Background(), backend.Request{Graph: g, Inputs: values(8, 0, 0, 0, 0, 0, 0, 0, 0)})
	assert.True(t, apperrors.IsBackendUnavailable(err), "got %v", err)

	g = tree.Build(widths.MustNew(8, 8, widths.GrowthLinear))
	_, err = b.Submit(context.Background(), backend.Request{Graph: g})
	assert.True(t, apperrors.IsBackendUnavailable(err), "got %v", err)
}

func TestParallelBackendRejectsBadConfig(t *testing.T) {
	t.Parallel()
	for _, spec := range []string{"parallel:workers=-1", "parallel:workers=x", "parallel:speed=9"} {
		_, err := backend.New(spec)
		assert.True(t, apperrors.IsBackendUnavailable(err), "%s: %v", spec, err)
	}
}

func TestBackends_AgreeWithReference(t *testing.T) {
	backends := available(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("every backend matches the full-precision product", prop.ForAll(
		func(k int, seed []int64) bool {
			if len(seed) == 0 {
				return true
			}
			// Width 16 with N up to 16 covers the w16n16 kernel.
			m := widths.MustNew(16, 1<<k, widths.GrowthExact)
			in := fixed.Format{Width: 16}
			inputs := make([]fixed.Complex, m.BatchSize())
			for i := range inputs {
				re := big.NewInt(seed[(2*i)%len(seed)] % 32768)
				im := big.NewInt(seed[(2*i+1)%len(seed)] % 32768)
				c, err := in.FromBig(re, im)
				if err != nil {
					return false
				}
				inputs[i] = c
			}
			want := fixed.Full(inputs)
			g := tree.Build(m)
			for _, b := range backends {
				out, err := b.Submit(context.Background(), backend.Request{Graph: g, Inputs: inputs})
				if apperrors.IsBackendUnavailable(err) {
					continue
				}
				if err != nil || len(out) != 1 || !out[0].Equal(want) {
					t.Logf("%s: got %v, %v; want %v", b.Name(), out, err, want)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 4),
		gen.SliceOfN(32, gen.Int64()),
	))

	properties.TestingRun(t)
}

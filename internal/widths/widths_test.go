package widths

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/fxtree/internal/errors"
)

func TestOutputWidthOfProduct(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want int }{
		{1, 3},
		{8, 17},
		{17, 35},
		{64, 129},
	}
	for _, tt := range tests {
		if got := OutputWidthOfProduct(tt.in); got != tt.want {
			t.Errorf("OutputWidthOfProduct(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		width     int
		batchSize int
		growth    Growth
	}{
		{"zero batch", 8, 0, GrowthExact},
		{"negative batch", 8, -4, GrowthExact},
		{"non power of two", 8, 6, GrowthExact},
		{"zero width", 0, 8, GrowthExact},
		{"too wide", MaxInputWidth + 1, 8, GrowthExact},
		{"too deep", 8, 1 << (MaxLayers + 1), GrowthExact},
		{"unknown growth", 8, 8, Growth(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.width, tt.batchSize, tt.growth)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !apperrors.IsPrecondition(err) {
				t.Errorf("expected a PreconditionError, got %T: %v", err, err)
			}
		})
	}
}

func TestWidthSequences(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		growth Growth
		want   []int
	}{
		{"exact", GrowthExact, []int{8, 17, 35, 71}},
		{"linear", GrowthLinear, []int{8, 17, 26, 35}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := MustNew(8, 8, tt.growth)
			got := m.Widths()
			if len(got) != len(tt.want) {
				t.Fatalf("Widths() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Widths() = %v, want %v", got, tt.want)
				}
			}
			if m.OutputWidth() != tt.want[len(tt.want)-1] {
				t.Errorf("OutputWidth() = %d", m.OutputWidth())
			}
		})
	}
}

func TestSingleInputTree(t *testing.T) {
	t.Parallel()
	m := MustNew(12, 1, GrowthExact)
	if m.Layers() != 0 || m.OutputWidth() != 12 || m.ElementsAtLayer(0) != 1 {
		t.Errorf("unexpected model for N=1: %s", m)
	}
}

func TestLayerOutOfRangePanics(t *testing.T) {
	t.Parallel()
	m := MustNew(8, 4, GrowthExact)
	for _, layer := range []int{-1, 3} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("WidthAtLayer(%d) did not panic", layer)
				}
			}()
			m.WidthAtLayer(layer)
		}()
	}
}

func TestParseGrowth(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Growth{"": GrowthExact, "exact": GrowthExact, "LINEAR": GrowthLinear} {
		got, err := ParseGrowth(in)
		if err != nil || got != want {
			t.Errorf("ParseGrowth(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseGrowth("cubic"); err == nil {
		t.Error("ParseGrowth(cubic) should fail")
	}
}

func TestModel_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	shape := gopter.CombineGens(gen.IntRange(1, MaxInputWidth), gen.IntRange(0, 10))

	properties.Property("exact growth satisfies the product recurrence", prop.ForAll(
		func(v []any) bool {
			m := MustNew(v[0].(int), 1<<v[1].(int), GrowthExact)
			for l := 0; l < m.Layers(); l++ {
				if m.WidthAtLayer(l+1) != OutputWidthOfProduct(m.WidthAtLayer(l)) {
					return false
				}
			}
			return m.WidthAtLayer(0) == m.InputWidth()
		},
		shape,
	))

	properties.Property("linear growth adds InputWidth+1 per layer", prop.ForAll(
		func(v []any) bool {
			m := MustNew(v[0].(int), 1<<v[1].(int), GrowthLinear)
			for l := 0; l < m.Layers(); l++ {
				if m.WidthAtLayer(l+1) != m.WidthAtLayer(l)+m.InputWidth()+1 {
					return false
				}
			}
			return true
		},
		shape,
	))

	properties.Property("elements halve down to one", prop.ForAll(
		func(v []any) bool {
			m := MustNew(v[0].(int), 1<<v[1].(int), GrowthExact)
			for l := 0; l < m.Layers(); l++ {
				if m.ElementsAtLayer(l+1) != m.ElementsAtLayer(l)/2 {
					return false
				}
			}
			return m.ElementsAtLayer(m.Layers()) == 1
		},
		shape,
	))

	properties.TestingRun(t)
}

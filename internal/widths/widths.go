// Package widths implements the bit-growth model of the reduction tree. It
// maps a layer index to the signed two's-complement width of the values that
// live at that layer and to the number of elements the layer holds.
package widths

import (
	"fmt"
	"math/bits"
	"strings"

	apperrors "github.com/agbru/fxtree/internal/errors"
)

const (
	// MaxInputWidth is the widest input part accepted by New.
	MaxInputWidth = 64
	// MaxLayers bounds log2(batch size). A deeper tree would need values
	// wider than any backend can reasonably hold.
	MaxLayers = 20
)

// Growth selects how the width of a layer is derived from the input width.
type Growth int

const (
	// GrowthExact follows the recurrence w(l+1) = OutputWidthOfProduct(w(l)),
	// whose closed form is (InputWidth+1)*2^l - 1. Every product of the tree
	// fits its layer under this model.
	GrowthExact Growth = iota
	// GrowthLinear grows each layer by exactly InputWidth+1 bits, i.e.
	// InputWidth + l*(InputWidth+1). It matches the recurrence for l <= 1
	// only; deeper layers can overflow and must be checked or wrapped.
	GrowthLinear
)

// String returns the flag spelling of the growth model.
func (g Growth) String() string {
	switch g {
	case GrowthExact:
		return "exact"
	case GrowthLinear:
		return "linear"
	default:
		return fmt.Sprintf("Growth(%d)", int(g))
	}
}

// ParseGrowth converts a flag value ("exact" or "linear") into a Growth.
//
// Parameters:
//   - s: The growth name, case-insensitive.
//
// Returns:
//   - Growth: The parsed growth model.
//   - error: A ConfigError if the name is unknown.
func ParseGrowth(s string) (Growth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return GrowthExact, nil
	case "linear":
		return GrowthLinear, nil
	default:
		return 0, apperrors.NewConfigError("unknown growth model %q (want exact or linear)", s)
	}
}

// OutputWidthOfProduct returns the width needed to hold the complex product
// of two values whose parts are w bits wide: 2w bits for each partial product
// plus one bit for the sum or difference of two of them.
func OutputWidthOfProduct(w int) int {
	return 2*w + 1
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns log2(n) for a positive power of two n.
func Log2(n int) int {
	return bits.TrailingZeros(uint(n))
}

// Model holds the width sequence of one reduction tree shape. The zero value
// is not usable; build models with New.
type Model struct {
	inputWidth int
	batchSize  int
	layers     int
	growth     Growth
}

// New validates the tree shape and returns its width model.
//
// Parameters:
//   - inputWidth: The width of each input's real and imaginary part, in bits.
//   - batchSize: The number of inputs N. Must be a power of two.
//   - growth: The growth model used for layer widths.
//
// Returns:
//   - Model: The width model.
//   - error: A PreconditionError if the shape is not supported.
func New(inputWidth, batchSize int, growth Growth) (Model, error) {
	if inputWidth < 1 || inputWidth > MaxInputWidth {
		return Model{}, apperrors.NewPreconditionError("input_width",
			fmt.Sprintf("must be between 1 and %d bits", MaxInputWidth), inputWidth)
	}
	if !IsPowerOfTwo(batchSize) {
		return Model{}, apperrors.NewPreconditionError("batch_size", "must be a power of two", batchSize)
	}
	k := Log2(batchSize)
	if k > MaxLayers {
		return Model{}, apperrors.NewPreconditionError("batch_size",
			fmt.Sprintf("tree depth %d exceeds the maximum of %d layers", k, MaxLayers), batchSize)
	}
	if growth != GrowthExact && growth != GrowthLinear {
		return Model{}, apperrors.NewPreconditionError("growth", "unknown growth model", growth)
	}
	return Model{inputWidth: inputWidth, batchSize: batchSize, layers: k, growth: growth}, nil
}

// MustNew is like New but panics on error. It is intended for shapes fixed
// in source code, such as generated kernels and tests.
func MustNew(inputWidth, batchSize int, growth Growth) Model {
	m, err := New(inputWidth, batchSize, growth)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Model) InputWidth() int { return m.inputWidth }
func (m Model) BatchSize() int  { return m.batchSize }
func (m Model) Growth() Growth  { return m.growth }

// Layers returns K = log2(BatchSize), the number of multiplication layers.
func (m Model) Layers() int { return m.layers }

// WidthAtLayer returns the part width of the values at the given layer.
// Layer 0 holds the inputs. It panics if layer is outside [0, Layers()].
func (m Model) WidthAtLayer(layer int) int {
	m.checkLayer(layer)
	if m.growth == GrowthLinear {
		return m.inputWidth + layer*(m.inputWidth+1)
	}
	return (m.inputWidth+1)<<uint(layer) - 1
}

// ElementsAtLayer returns BatchSize / 2^layer. It panics if layer is outside
// [0, Layers()].
func (m Model) ElementsAtLayer(layer int) int {
	m.checkLayer(layer)
	return m.batchSize >> uint(layer)
}

// OutputWidth returns the part width of the reduction result.
func (m Model) OutputWidth() int {
	return m.WidthAtLayer(m.layers)
}

// Widths returns the width of every layer, from the inputs to the result.
func (m Model) Widths() []int {
	ws := make([]int, m.layers+1)
	for l := range ws {
		ws[l] = m.WidthAtLayer(l)
	}
	return ws
}

// String describes the shape, e.g. "N=8 w=8 exact [8 17 35 71]".
func (m Model) String() string {
	return fmt.Sprintf("N=%d w=%d %s %v", m.batchSize, m.inputWidth, m.growth, m.Widths())
}

func (m Model) checkLayer(layer int) {
	if layer < 0 || layer > m.layers {
		panic(fmt.Sprintf("widths: layer %d out of range [0, %d]", layer, m.layers))
	}
}

// Package tree builds the balanced binary reduction tree of a width model and
// evaluates it in process. A Graph is the fully specified computation handed
// to execution backends: every layer lists its multiplications and the
// concrete FixedComplex format of its operands and products.
package tree

import (
	"fmt"
	"strings"

	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/unroll"
	"github.com/agbru/fxtree/internal/widths"
)

// Op is one multiplication: next[Dst] = prev[Left] * prev[Right].
type Op struct {
	Dst, Left, Right int
}

// Layer holds the multiplications that turn the values of layer Index into
// the values of layer Index+1.
type Layer struct {
	// Index is the layer the operands are read from.
	Index int
	// In is the format of the operands.
	In fixed.Format
	// Out is the format of the products.
	Out fixed.Format
	// Ops are the independent multiplications of the layer, by Dst.
	Ops []Op
}

// Options configures Build.
type Options struct {
	// Overflow selects what evaluation does with a product that does not fit
	// its layer. It only matters for models that do not use exact growth.
	Overflow fixed.OverflowMode
}

// Option is a functional option for Build.
type Option func(*Options)

// WithOverflow sets the overflow mode of the graph.
func WithOverflow(mode fixed.OverflowMode) Option {
	return func(o *Options) {
		o.Overflow = mode
	}
}

// LayerFormat returns the concrete type of the values at the given layer.
func LayerFormat(m widths.Model, layer int) fixed.Format {
	return fixed.Format{Width: m.WidthAtLayer(layer)}
}

// Graph is an immutable reduction tree.
type Graph struct {
	model    widths.Model
	layers   []Layer
	overflow fixed.OverflowMode
	numOps   int
}

// Build expands the reduction tree of m. Layers 0..K-1 are walked with
// unroll.Step and, inside each, the pairs (2i, 2i+1) are walked the same way.
//
// Parameters:
//   - m: The width model of the tree.
//   - opts: Functional options.
//
// Returns:
//   - *Graph: The computation graph.
func Build(m widths.Model, opts ...Option) *Graph {
	o := Options{Overflow: fixed.OverflowError}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{model: m, overflow: o.Overflow, layers: make([]Layer, 0, m.Layers())}
	unroll.Step(0, m.Layers(), func(l int) {
		pairs := m.ElementsAtLayer(l) / 2
		layer := Layer{
			Index: l,
			In:    LayerFormat(m, l),
			Out:   LayerFormat(m, l+1),
			Ops:   make([]Op, 0, pairs),
		}
		unroll.Step(0, pairs, func(i int) {
			layer.Ops = append(layer.Ops, Op{Dst: i, Left: 2 * i, Right: 2*i + 1})
		})
		g.numOps += pairs
		g.layers = append(g.layers, layer)
	})
	return g
}

func (g *Graph) Model() widths.Model          { return g.model }
func (g *Graph) Overflow() fixed.OverflowMode { return g.overflow }
func (g *Graph) NumLayers() int               { return len(g.layers) }
func (g *Graph) InputFormat() fixed.Format    { return LayerFormat(g.model, 0) }
func (g *Graph) OutputFormat() fixed.Format   { return LayerFormat(g.model, g.model.Layers()) }
func (g *Graph) BatchSize() int               { return g.model.BatchSize() }

// NumOps returns the total number of multiplications, N-1.
func (g *Graph) NumOps() int { return g.numOps }

// Layers returns a copy of the layer list.
func (g *Graph) Layers() []Layer {
	out := make([]Layer, len(g.layers))
	copy(out, g.layers)
	return out
}

// Layer returns the layer that reads from index l. It panics if l is not in
// [0, NumLayers()).
func (g *Graph) Layer(l int) Layer {
	return g.layers[l]
}

// String renders the plan of the graph, one line per layer.
func (g *Graph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tree N=%d K=%d growth=%s overflow=%s ops=%d\n",
		g.model.BatchSize(), g.model.Layers(), g.model.Growth(), g.overflow, g.numOps)
	fmt.Fprintf(&sb, "layer 0: %d x %s\n", g.model.ElementsAtLayer(0), g.InputFormat())
	for _, layer := range g.layers {
		fmt.Fprintf(&sb, "layer %d: %d x %s ", layer.Index+1, len(layer.Ops), layer.Out)
		for _, op := range layer.Ops {
			fmt.Fprintf(&sb, " [%d]=%d*%d", op.Dst, op.Left, op.Right)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

package tree

import (
	"errors"
	"fmt"

	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/unroll"
)

// CheckInputs verifies that inputs can be submitted to the graph: exactly N
// values, each part representable in the input width.
//
// Parameters:
//   - inputs: The ordered input values.
//
// Returns:
//   - error: A PreconditionError describing the first violation, or nil.
func (g *Graph) CheckInputs(inputs []fixed.Complex) error {
	if len(inputs) != g.BatchSize() {
		return apperrors.NewPreconditionError("inputs",
			fmt.Sprintf("expected %d values, got %d", g.BatchSize(), len(inputs)), len(inputs))
	}
	in := g.InputFormat()
	for i, v := range inputs {
		if !in.Contains(v.Re()) || !in.Contains(v.Im()) {
			return apperrors.NewPreconditionError(fmt.Sprintf("inputs[%d]", i),
				fmt.Sprintf("%s does not fit %s", v, in), v.String())
		}
	}
	return nil
}

// Load copies checked inputs into the working array of layer 0, converting
// each value to the input format.
func (g *Graph) Load(inputs []fixed.Complex) ([]fixed.Complex, error) {
	if err := g.CheckInputs(inputs); err != nil {
		return nil, err
	}
	in := g.InputFormat()
	work := make([]fixed.Complex, len(inputs))
	for i, v := range inputs {
		c, err := in.FromBig(v.Re(), v.Im())
		if err != nil {
			return nil, err
		}
		work[i] = c
	}
	return work, nil
}

// EvalOp computes one product of layer l from the working array prev.
func (g *Graph) EvalOp(l int, op Op, prev []fixed.Complex) (fixed.Complex, error) {
	layer := g.layers[l]
	p, err := fixed.Mul(prev[op.Left], prev[op.Right], layer.Out, g.overflow)
	if err != nil {
		var overflow *fixed.Overflow
		if errors.As(err, &overflow) {
			overflow.Layer = l + 1
		}
		return fixed.Complex{}, err
	}
	return p, nil
}

// EvalLayer computes every product of layer l sequentially into a fresh
// working array. prev is only read.
func (g *Graph) EvalLayer(l int, prev []fixed.Complex) ([]fixed.Complex, error) {
	layer := g.layers[l]
	if len(prev) != 2*len(layer.Ops) {
		return nil, fmt.Errorf("layer %d: got %d values, want %d", l, len(prev), 2*len(layer.Ops))
	}
	next := make([]fixed.Complex, len(layer.Ops))
	err := unroll.StepE(0, len(layer.Ops), func(i int) error {
		p, err := g.EvalOp(l, layer.Ops[i], prev)
		if err != nil {
			return err
		}
		next[layer.Ops[i].Dst] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Trace evaluates the graph and returns the working array of every layer,
// from the inputs (layer 0) to the single result (layer K).
func Trace(g *Graph, inputs []fixed.Complex) ([][]fixed.Complex, error) {
	work, err := g.Load(inputs)
	if err != nil {
		return nil, err
	}
	trace := make([][]fixed.Complex, 0, g.NumLayers()+1)
	trace = append(trace, work)
	err = unroll.StepE(0, g.NumLayers(), func(l int) error {
		next, err := g.EvalLayer(l, work)
		if err != nil {
			return err
		}
		work = next
		trace = append(trace, work)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trace, nil
}

// Evaluate is the in-process reference evaluation of the graph: it copies the
// inputs, runs every layer in order and returns the single remaining value.
//
// Parameters:
//   - g: The graph to evaluate.
//   - inputs: The ordered input values, len(inputs) == N.
//
// Returns:
//   - fixed.Complex: The reduction result, in the graph's output format.
//   - error: A PreconditionError for bad inputs or an *fixed.Overflow.
func Evaluate(g *Graph, inputs []fixed.Complex) (fixed.Complex, error) {
	trace, err := Trace(g, inputs)
	if err != nil {
		return fixed.Complex{}, err
	}
	last := trace[len(trace)-1]
	return last[0], nil
}

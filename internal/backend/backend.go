// Package backend defines the execution backend consumed by the reduction
// adapter: a collaborator that accepts a fully specified reduction graph plus
// its inputs, runs it, and returns the outputs. Concrete backends live in
// sub-packages and register themselves by name.
package backend

//go:generate mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
)

// ProgressReporter receives the fraction of layers completed, from 0.0 to 1.0.
type ProgressReporter func(progress float64)

// Request is one submission: the graph to run and its ordered inputs.
type Request struct {
	Graph  *tree.Graph
	Inputs []fixed.Complex
	// Progress is optional and called at every layer barrier.
	Progress ProgressReporter
}

// Device describes where a backend runs its computation.
type Device struct {
	// Name is the human-readable device name printed in the run banner.
	Name string
	// Kind groups devices: "emulator", "cpu", "kernel" or "gmp".
	Kind string
	// Workers is the number of concurrent multipliers the device offers.
	Workers int
	// Features lists optional hardware capabilities the device detected.
	Features []string
}

func (d Device) String() string {
	s := fmt.Sprintf("%s (%s, %d workers)", d.Name, d.Kind, d.Workers)
	if len(d.Features) > 0 {
		s += " [" + strings.Join(d.Features, " ") + "]"
	}
	return s
}

// Backend executes reduction graphs. Implementations must be safe for
// concurrent use by multiple goroutines.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string
	// Description returns a one-line description.
	Description() string
	// Device describes the device the backend runs on.
	Device() Device
	// Submit runs the graph on the inputs and blocks until it is complete.
	// The context is observed at layer barriers only: a layer that has
	// started always completes.
	Submit(ctx context.Context, req Request) ([]fixed.Complex, error)
	// Close releases the device. The backend must not be used afterwards.
	Close() error
}

// EvalLayerFunc computes the working array of layer l+1 from that of layer l.
type EvalLayerFunc func(ctx context.Context, l int, prev []fixed.Complex) ([]fixed.Complex, error)

// RunLayers is the layer loop shared by the in-process backends. It loads the
// inputs, runs every layer through eval with a barrier in between, reports
// progress after each layer and returns the final working array.
//
// Parameters:
//   - ctx: Checked before each layer starts.
//   - req: The submission.
//   - eval: The per-layer evaluator.
//
// Returns:
//   - []fixed.Complex: The terminal working array (one value).
//   - error: A precondition, overflow, evaluator or context error.
func RunLayers(ctx context.Context, req Request, eval EvalLayerFunc) ([]fixed.Complex, error) {
	if req.Graph == nil {
		return nil, fmt.Errorf("submit: nil graph")
	}
	work, err := req.Graph.Load(req.Inputs)
	if err != nil {
		return nil, err
	}
	layers := req.Graph.NumLayers()
	report(req.Progress, 0)
	for l := 0; l < layers; l++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := eval(ctx, l, work)
		if err != nil {
			return nil, err
		}
		work = next
		report(req.Progress, float64(l+1)/float64(layers))
	}
	if layers == 0 {
		report(req.Progress, 1)
	}
	return work, nil
}

func report(p ProgressReporter, v float64) {
	if p != nil {
		p(v)
	}
}

// Package compiled provides a backend that runs the generated, fully unrolled
// kernels of internal/kernels. A graph can only be submitted when a kernel
// was generated for its shape and the graph uses exact growth.
package compiled

import (
	"context"
	"fmt"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/kernels"
	"github.com/agbru/fxtree/internal/widths"
)

// Name is the registry name of the backend.
const Name = "compiled"

func init() {
	backend.Register(Name, "generated straight-line kernels for fixed shapes (see fxtreegen)", func(string) (backend.Backend, error) {
		return New(), nil
	})
}

// Backend dispatches graphs to generated kernels.
type Backend struct{}

// New creates a compiled-kernel backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return Name }
func (b *Backend) Close() error { return nil }

func (b *Backend) Description() string {
	return fmt.Sprintf("generated kernels for %v", kernels.Shapes())
}

// Device reports the pseudo-device made of the registered kernels.
func (b *Backend) Device() backend.Device {
	return backend.Device{
		Name:    fmt.Sprintf("unrolled kernels (%d shapes)", len(kernels.Shapes())),
		Kind:    "kernel",
		Workers: 1,
	}
}

// Submit runs the kernel registered for the graph's shape.
//
// Returns:
//   - []fixed.Complex: The single result.
//   - error: A BackendUnavailableError if no kernel matches the graph, a
//     PreconditionError for bad inputs, or a context error.
func (b *Backend) Submit(ctx context.Context, req backend.Request) ([]fixed.Complex, error) {
	g := req.Graph
	if g == nil {
		return nil, fmt.Errorf("submit: nil graph")
	}
	m := g.Model()
	if m.Growth() != widths.GrowthExact {
		return nil, apperrors.NewBackendUnavailableError(Name,
			fmt.Errorf("kernels only implement exact growth, graph uses %s", m.Growth()))
	}
	kernel, ok := kernels.Lookup(m.InputWidth(), m.BatchSize())
	if !ok {
		shape := kernels.Shape{InputWidth: m.InputWidth(), BatchSize: m.BatchSize()}
		return nil, apperrors.NewBackendUnavailableError(Name,
			fmt.Errorf("no kernel for shape %s (generate one with fxtreegen -shapes %dx%d)",
				shape, m.InputWidth(), m.BatchSize()))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l0, err := g.Load(req.Inputs)
	if err != nil {
		return nil, err
	}
	if req.Progress != nil {
		req.Progress(0)
	}
	out := kernel(l0)
	if req.Progress != nil {
		req.Progress(1)
	}
	return []fixed.Complex{out}, nil
}

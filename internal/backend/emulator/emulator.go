// Package emulator provides the reference backend: it evaluates the reduction
// graph sequentially on the calling goroutine, one layer after the other. It
// needs no device and is always available.
package emulator

import (
	"context"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/fixed"
)

// Name is the registry name of the backend.
const Name = "emulator"

func init() {
	backend.Register(Name, "sequential in-process evaluation, no device required", func(string) (backend.Backend, error) {
		return New(), nil
	})
}

// Backend evaluates graphs sequentially.
type Backend struct{}

// New creates an emulator backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string        { return Name }
func (b *Backend) Description() string { return "sequential in-process evaluation" }
func (b *Backend) Close() error        { return nil }

// Device reports the emulator pseudo-device.
func (b *Backend) Device() backend.Device {
	return backend.Device{Name: "FPGA emulator", Kind: "emulator", Workers: 1}
}

// Submit runs every layer with tree.Graph.EvalLayer.
func (b *Backend) Submit(ctx context.Context, req backend.Request) ([]fixed.Complex, error) {
	return backend.RunLayers(ctx, req, func(_ context.Context, l int, prev []fixed.Complex) ([]fixed.Complex, error) {
		return req.Graph.EvalLayer(l, prev)
	})
}

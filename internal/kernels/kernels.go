// Package kernels holds reduction kernels generated by cmd/fxtreegen. Each
// kernel is a straight-line function for one (input width, batch size) shape
// and registers itself from its init function.
package kernels

//go:generate go run ../../cmd/fxtreegen -shapes 8x2,8x8,16x16 -out .

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agbru/fxtree/internal/fixed"
)

// Kernel reduces the layer-0 working array of its shape to the final value.
// The inputs must already be in the input format of the shape.
type Kernel func(l0 []fixed.Complex) fixed.Complex

// Shape identifies a kernel.
type Shape struct {
	InputWidth int
	BatchSize  int
}

func (s Shape) String() string {
	return fmt.Sprintf("w%dn%d", s.InputWidth, s.BatchSize)
}

var (
	mu      sync.RWMutex
	kernels = make(map[Shape]Kernel)
)

// Register adds a kernel for a shape, replacing any previous one.
func Register(inputWidth, batchSize int, k Kernel) {
	mu.Lock()
	defer mu.Unlock()
	kernels[Shape{InputWidth: inputWidth, BatchSize: batchSize}] = k
}

// Lookup returns the kernel of a shape.
func Lookup(inputWidth, batchSize int) (Kernel, bool) {
	mu.RLock()
	defer mu.RUnlock()
	k, ok := kernels[Shape{InputWidth: inputWidth, BatchSize: batchSize}]
	return k, ok
}

// Shapes returns the registered shapes, ordered by width then batch size.
func Shapes() []Shape {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Shape, 0, len(kernels))
	for s := range kernels {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InputWidth != out[j].InputWidth {
			return out[i].InputWidth < out[j].InputWidth
		}
		return out[i].BatchSize < out[j].BatchSize
	})
	return out
}

// Package parallel provides a CPU backend that evaluates the independent
// multiplications of each layer concurrently with a bounded worker pool.
// Layers remain strict barriers.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sys/cpu"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/fixed"
	workers "github.com/agbru/fxtree/internal/parallel"
)

// Name is the registry name of the backend.
const Name = "parallel"

// DefaultThreshold is the smallest number of multiplications in a layer that
// is dispatched to the worker pool; smaller layers run inline.
const DefaultThreshold = 4

func init() {
	backend.Register(Name, "concurrent per-layer evaluation on CPU cores (config: workers=N,threshold=N)", func(config string) (backend.Backend, error) {
		opts, err := ParseConfig(config)
		if err != nil {
			return nil, err
		}
		return New(opts), nil
	})
}

// Options configures the parallel backend.
type Options struct {
	// Workers bounds the goroutines per layer. Zero means GOMAXPROCS.
	Workers int
	// Threshold is the smallest layer dispatched concurrently. Zero means
	// DefaultThreshold.
	Threshold int
}

// ParseConfig reads "workers=N,threshold=N".
func ParseConfig(config string) (Options, error) {
	var opts Options
	for k, v := range backend.ParseConfig(config) {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Options{}, fmt.Errorf("invalid %s %q: want a non-negative integer", k, v)
		}
		switch k {
		case "workers":
			opts.Workers = n
		case "threshold":
			opts.Threshold = n
		default:
			return Options{}, fmt.Errorf("unknown option %q", k)
		}
	}
	return opts, nil
}

// Backend evaluates layers with a worker pool.
type Backend struct {
	workers   int
	threshold int
}

// New creates a parallel backend.
func New(opts Options) *Backend {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Backend{workers: opts.Workers, threshold: opts.Threshold}
}

func (b *Backend) Name() string { return Name }
func (b *Backend) Close() error { return nil }

func (b *Backend) Description() string {
	return fmt.Sprintf("concurrent evaluation, %d workers, threshold %d", b.workers, b.threshold)
}

// Device reports the host CPU and the vector extensions it supports.
func (b *Backend) Device() backend.Device {
	return backend.Device{
		Name:     fmt.Sprintf("%s/%s CPU", runtime.GOOS, runtime.GOARCH),
		Kind:     "cpu",
		Workers:  b.workers,
		Features: cpuFeatures(),
	}
}

// Submit evaluates each layer's products through the worker pool. Every
// worker writes only its own slot of the fresh working array.
func (b *Backend) Submit(ctx context.Context, req backend.Request) ([]fixed.Complex, error) {
	g := req.Graph
	return backend.RunLayers(ctx, req, func(_ context.Context, l int, prev []fixed.Complex) ([]fixed.Complex, error) {
		layer := g.Layer(l)
		next := make([]fixed.Complex, len(layer.Ops))
		err := workers.ForEach(len(layer.Ops), b.workers, b.threshold, func(i int) error {
			op := layer.Ops[i]
			p, err := g.EvalOp(l, op, prev)
			if err != nil {
				return err
			}
			next[op.Dst] = p
			return nil
		})
		if err != nil {
			return nil, err
		}
		return next, nil
	})
}

func cpuFeatures() []string {
	var fs []string
	switch runtime.GOARCH {
	case "amd64":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"bmi2", cpu.X86.HasBMI2},
			{"adx", cpu.X86.HasADX},
			{"avx2", cpu.X86.HasAVX2},
			{"avx512f", cpu.X86.HasAVX512F},
		} {
			if f.ok {
				fs = append(fs, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			fs = append(fs, "asimd")
		}
		if cpu.ARM64.HasSVE {
			fs = append(fs, "sve")
		}
	}
	return fs
}

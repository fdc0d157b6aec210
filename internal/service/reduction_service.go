// Package service holds the request-level reduction logic shared by the HTTP
// server: it turns a loosely typed request into a validated tree shape, runs
// it on a backend from the registry and returns the result with its graph.
package service

//go:generate mockgen -source=reduction_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/batch"
	"github.com/agbru/fxtree/internal/config"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

const (
	// DefaultMaxBatchSize is the largest batch accepted when no limit is given.
	DefaultMaxBatchSize = 1 << 16
	// GraphCacheSize is the number of graph shapes kept between requests.
	GraphCacheSize = 128
)

var (
	// ErrBatchTooLarge is returned when a request carries more inputs than
	// the configured maximum.
	ErrBatchTooLarge = errors.New("batch size exceeds the configured maximum")
)

// Request is one reduction request. Empty fields take the service defaults.
type Request struct {
	// InputWidth is the width of each input part, in bits.
	InputWidth int
	// Backend is a backend spec such as "parallel:workers=4".
	Backend string
	// Growth is "exact" or "linear".
	Growth string
	// Overflow is "error" or "wrap".
	Overflow string
	// Inputs are the ordered input values. Their count is the batch size.
	Inputs []batch.Literal
}

// Outcome is a completed reduction together with the graph that produced it.
type Outcome struct {
	Result reduction.Result
	Graph  *tree.Graph
}

// Service defines the interface for reduction services.
// This abstraction enables dependency injection and easier testing/mocking.
type Service interface {
	// Reduce validates the request, runs it and returns its outcome.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - req: The reduction request.
	//
	// Returns:
	//   - Outcome: The result and its graph.
	//   - error: ErrBatchTooLarge, a ConfigError or PreconditionError for an
	//     invalid request, a BackendUnavailableError, or the backend's error.
	Reduce(ctx context.Context, req Request) (Outcome, error)

	// Backends lists the registered backends.
	Backends() []backend.Info
}

// shape identifies a graph: two requests with the same shape share it.
type shape struct {
	width    int
	size     int
	growth   widths.Growth
	overflow fixed.OverflowMode
}

// ReductionService implements Service on top of a backend registry.
// Graphs are immutable once built and are cached by shape.
type ReductionService struct {
	registry     *backend.Registry
	config       config.AppConfig
	maxBatchSize int
	graphs       *lru.Cache[shape, *tree.Graph]
}

// Ensure ReductionService implements Service interface.
var _ Service = (*ReductionService)(nil)

// NewReductionService creates a new instance of ReductionService.
//
// Parameters:
//   - registry: The registry to construct backends from.
//   - cfg: The application configuration, source of the request defaults.
//   - maxBatchSize: The maximum number of inputs per request (0 for
//     DefaultMaxBatchSize).
func NewReductionService(registry *backend.Registry, cfg config.AppConfig, maxBatchSize int) *ReductionService {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	graphs, err := lru.New[shape, *tree.Graph](GraphCacheSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &ReductionService{
		registry:     registry,
		config:       cfg,
		maxBatchSize: maxBatchSize,
		graphs:       graphs,
	}
}

// CachedGraphs returns the number of graph shapes currently cached.
func (s *ReductionService) CachedGraphs() int { return s.graphs.Len() }

// Backends implements Service.
func (s *ReductionService) Backends() []backend.Info {
	return s.registry.List()
}

// Reduce implements Service. A backend is constructed per request and closed
// before Reduce returns.
func (s *ReductionService) Reduce(ctx context.Context, req Request) (Outcome, error) {
	if len(req.Inputs) > s.maxBatchSize {
		return Outcome{}, fmt.Errorf("%w: %d inputs, limit %d", ErrBatchTooLarge, len(req.Inputs), s.maxBatchSize)
	}

	g, values, err := s.prepare(req)
	if err != nil {
		return Outcome{}, err
	}

	spec := req.Backend
	if spec == "" {
		spec = s.config.Backend
	}
	b, err := s.registry.New(s.config.ResolveSpec(spec))
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = b.Close() }()

	res, err := reduction.NewAdapter(b, g).Reduce(ctx, values)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res, Graph: g}, nil
}

// prepare builds the graph and converts the inputs.
func (s *ReductionService) prepare(req Request) (*tree.Graph, []fixed.Complex, error) {
	width := req.InputWidth
	if width == 0 {
		width = s.config.InputWidth
	}
	growthName := req.Growth
	if growthName == "" {
		growthName = s.config.Growth
	}
	overflowName := req.Overflow
	if overflowName == "" {
		overflowName = s.config.Overflow
	}

	growth, err := widths.ParseGrowth(growthName)
	if err != nil {
		return nil, nil, err
	}
	mode, err := fixed.ParseOverflowMode(overflowName)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Inputs) == 0 {
		return nil, nil, apperrors.NewPreconditionError("inputs", "must not be empty", 0)
	}
	g, err := s.graph(shape{width: width, size: len(req.Inputs), growth: growth, overflow: mode})
	if err != nil {
		return nil, nil, err
	}
	values, err := batch.Values(width, req.Inputs)
	if err != nil {
		return nil, nil, err
	}
	return g, values, nil
}

// graph returns the cached graph of k, building it on a miss.
func (s *ReductionService) graph(k shape) (*tree.Graph, error) {
	if g, ok := s.graphs.Get(k); ok {
		return g, nil
	}
	m, err := widths.New(k.width, k.size, k.growth)
	if err != nil {
		return nil, err
	}
	g := tree.Build(m, tree.WithOverflow(k.overflow))
	s.graphs.Add(k, g)
	return g, nil
}

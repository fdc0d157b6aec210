// Package reduction is the execution adapter between the reduction tree and
// an execution backend. It checks the inputs, submits the graph once, verifies
// that exactly one value of the output format came back, and surrounds the
// round trip with progress observers, metrics, tracing and logging.
package reduction

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/tree"
)

var (
	reductionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxtree_reductions_total",
			Help: "The total number of tree reductions submitted",
		},
		[]string{"backend", "status"},
	)
	reductionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fxtree_reduction_duration_seconds",
			Help: "The duration of tree reductions in seconds, backend round trip included",
		},
		[]string{"backend"},
	)
)

// Result is the outcome of one reduction.
type Result struct {
	// Value is the single value of the terminal layer.
	Value fixed.Complex `json:"value"`
	// Format is the output format of the graph, FixedComplex(WidthAtLayer(K)).
	Format fixed.Format `json:"-"`
	// Backend is the name of the backend that ran the graph.
	Backend string `json:"backend"`
	// Device is the device description reported by the backend.
	Device string `json:"device"`
	// Duration is the wall time of the backend round trip.
	Duration time.Duration `json:"duration"`
}

// Reducer runs one reduction graph on one backend.
type Reducer interface {
	// Reduce checks the inputs, submits the graph and returns its result.
	//
	// Parameters:
	//   - ctx: The context for cancellation, observed at layer barriers.
	//   - inputs: The ordered inputs, exactly N values of the input width.
	//
	// Returns:
	//   - Result: The reduction result.
	//   - error: A PreconditionError before submission, the backend's error
	//     unchanged, or a BackendError for a malformed backend reply.
	Reduce(ctx context.Context, inputs []fixed.Complex) (Result, error)

	// ReduceWithObservers is Reduce with progress sent to subject on behalf
	// of reducerIndex. A nil subject disables progress reporting.
	ReduceWithObservers(ctx context.Context, subject *ProgressSubject, reducerIndex int, inputs []fixed.Complex) (Result, error)

	// Name returns the backend name.
	Name() string

	// Graph returns the graph the reducer submits.
	Graph() *tree.Graph
}

// Adapter is the Reducer decorating a backend.Backend.
type Adapter struct {
	backend backend.Backend
	graph   *tree.Graph
}

// NewAdapter binds a backend to a graph. It panics if either is nil.
//
// Parameters:
//   - b: The execution backend.
//   - g: The reduction graph.
//
// Returns:
//   - *Adapter: The adapter.
func NewAdapter(b backend.Backend, g *tree.Graph) *Adapter {
	if b == nil || g == nil {
		panic("reduction: backend and graph must not be nil")
	}
	return &Adapter{backend: b, graph: g}
}

func (a *Adapter) Name() string           { return a.backend.Name() }
func (a *Adapter) Graph() *tree.Graph     { return a.graph }
func (a *Adapter) Device() backend.Device { return a.backend.Device() }

// Reduce implements Reducer.
func (a *Adapter) Reduce(ctx context.Context, inputs []fixed.Complex) (Result, error) {
	return a.ReduceWithObservers(ctx, nil, 0, inputs)
}

// ReduceWithObservers implements Reducer.
func (a *Adapter) ReduceWithObservers(ctx context.Context, subject *ProgressSubject, reducerIndex int, inputs []fixed.Complex) (result Result, err error) {
	name := a.backend.Name()
	ctx, span := otel.Tracer("fxtree/reduction").Start(ctx, "Reduce")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", name),
		attribute.Int("batch_size", a.graph.BatchSize()),
		attribute.Int("input_width", a.graph.InputFormat().Width),
		attribute.Int("output_width", a.graph.OutputFormat().Width),
	)

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		reductionsTotal.WithLabelValues(name, status).Inc()
		reductionDuration.WithLabelValues(name).Observe(duration.Seconds())

		log.Debug().
			Str("backend", name).
			Int("batch_size", a.graph.BatchSize()).
			Int("output_width", a.graph.OutputFormat().Width).
			Dur("duration", duration).
			Str("status", status).
			Msg("reduction completed")
	}()

	// Nothing is submitted for inputs the graph cannot accept.
	if err := a.graph.CheckInputs(inputs); err != nil {
		return Result{}, err
	}

	req := backend.Request{Graph: a.graph, Inputs: inputs}
	if subject != nil {
		req.Progress = subject.Reporter(reducerIndex)
	}

	submitted := time.Now()
	outputs, err := a.backend.Submit(ctx, req)
	if err != nil {
		return Result{}, err
	}
	elapsed := time.Since(submitted)

	if len(outputs) != 1 {
		return Result{}, apperrors.BackendError{
			Backend: name,
			Cause:   fmt.Errorf("returned %d outputs, want exactly 1", len(outputs)),
		}
	}
	out := a.graph.OutputFormat()
	if outputs[0].Width() != out.Width {
		return Result{}, apperrors.BackendError{
			Backend: name,
			Cause:   fmt.Errorf("returned %s, want %s", outputs[0].Format(), out),
		}
	}

	if subject != nil {
		subject.Notify(reducerIndex, 1.0)
	}
	return Result{
		Value:    outputs[0],
		Format:   out,
		Backend:  name,
		Device:   a.backend.Device().Name,
		Duration: elapsed,
	}, nil
}

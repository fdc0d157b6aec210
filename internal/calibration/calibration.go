package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/batch"
	"github.com/agbru/fxtree/internal/cli"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/widths"
)

// Shape and repetition of the timed reduction.
const (
	DefaultInputWidth = 16
	DefaultBatchSize  = 1 << 10
	DefaultTrials     = 3
)

// Options configures the calibration process.
type Options struct {
	// InputWidth and BatchSize give the shape of the timed batch. Zero means
	// the package default.
	InputWidth int
	BatchSize  int
	// Trials is the number of reductions per threshold; the fastest counts.
	Trials int
	// Workers is passed to every candidate backend. Zero means GOMAXPROCS.
	Workers int
	// ProfilePath is the path to save the calibration profile.
	// If empty, uses the default path.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
}

func (o Options) withDefaults() Options {
	if o.InputWidth <= 0 {
		o.InputWidth = DefaultInputWidth
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Trials <= 0 {
		o.Trials = DefaultTrials
	}
	return o
}

// result holds the timing of a single threshold.
type result struct {
	Threshold int
	Duration  time.Duration
	Err       error
}

// Run times the parallel backend of registry with every candidate threshold
// on an extreme batch under exact growth, prints the results table and
// saves the fastest threshold to the profile when requested.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - registry: The registry providing the "parallel" backend.
//   - out: The io.Writer to which progress and results will be written.
//   - opts: The calibration options.
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func Run(ctx context.Context, registry *backend.Registry, out io.Writer, opts Options) int {
	opts = opts.withDefaults()
	colors := cli.CLIColorProvider{}
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Parallel Threshold ---\n")

	// The width model checks the batch size before the batch is built.
	m, err := widths.New(opts.InputWidth, opts.BatchSize, widths.GrowthExact)
	if err != nil {
		return apperrors.HandleReductionError(err, 0, out, colors)
	}
	f := batch.Extreme(opts.InputWidth, opts.BatchSize)
	inputs, err := f.Values()
	if err != nil {
		return apperrors.HandleReductionError(err, 0, out, colors)
	}
	g := tree.Build(m)

	thresholds := CandidateThresholds()
	fmt.Fprintf(out, "%sTiming %d thresholds on %d CPU cores with %s%s\n",
		cli.ColorCyan(), len(thresholds), runtime.NumCPU(), f.Name, cli.ColorReset())

	start := time.Now()
	results := make([]result, 0, len(thresholds))
	for _, threshold := range thresholds {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", cli.ColorYellow(), cli.ColorReset())
			return apperrors.HandleReductionError(ctx.Err(), 0, out, colors)
		}
		duration, err := timeThreshold(ctx, registry, g, inputs, threshold, opts)
		results = append(results, result{Threshold: threshold, Duration: duration, Err: err})
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apperrors.HandleReductionError(err, 0, out, colors)
		}
		fmt.Fprintf(out, "%s❌ Threshold %d failed (%v)%s\n", cli.ColorRed(), threshold, err, cli.ColorReset())
	}

	best := fastest(results)
	if best == 0 {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, best)
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-threshold %d%s\n",
		cli.ColorGreen(), cli.ColorYellow(), best, cli.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.Threshold = best
		profile.InputWidth = opts.InputWidth
		profile.BatchSize = opts.BatchSize
		profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
		if err := profile.Save(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n", cli.ColorYellow(), err, cli.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved.%s\n", cli.ColorGreen(), cli.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// timeThreshold returns the fastest of opts.Trials reductions of g on a
// parallel backend configured with threshold.
func timeThreshold(ctx context.Context, registry *backend.Registry, g *tree.Graph, inputs []fixed.Complex, threshold int, opts Options) (time.Duration, error) {
	spec := fmt.Sprintf("parallel:threshold=%d", threshold)
	if opts.Workers > 0 {
		spec += fmt.Sprintf(",workers=%d", opts.Workers)
	}
	b, err := registry.New(spec)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	reducer := reduction.NewAdapter(b, g)
	best := time.Duration(math.MaxInt64)
	for range opts.Trials {
		res, err := reducer.Reduce(ctx, inputs)
		if err != nil {
			return 0, err
		}
		best = min(best, res.Duration)
	}
	return best, nil
}

// Threshold returns the parallel threshold to use when none was configured:
// the one stored in a valid profile at path, or the estimate otherwise.
//
// Returns:
//   - int: The threshold in pairs per layer.
//   - bool: True if the threshold comes from the profile.
func Threshold(path string) (int, bool) {
	profile, err := LoadProfile(path)
	if err == nil && profile.IsValid() {
		return profile.Threshold, true
	}
	return EstimateThreshold(), false
}

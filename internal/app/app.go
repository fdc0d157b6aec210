package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agbru/fxtree/internal/backend"
	_ "github.com/agbru/fxtree/internal/backend/defaults"
	"github.com/agbru/fxtree/internal/batch"
	"github.com/agbru/fxtree/internal/calibration"
	"github.com/agbru/fxtree/internal/cli"
	"github.com/agbru/fxtree/internal/config"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/logging"
	"github.com/agbru/fxtree/internal/orchestration"
	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/server"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/ui"
	"github.com/agbru/fxtree/internal/widths"
)

// progressLogThreshold is the progress step between two debug log lines.
const progressLogThreshold = 0.25

// Application represents the fxtree application instance.
// It encapsulates the configuration and provides methods to run
// the application in either CLI or server mode.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Registry provides the execution backends.
	Registry *backend.Registry
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	registry := backend.Default

	// args[0] is program name, args[1:] are the actual arguments
	programName := "fxtree"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, registry.Names())
	if err != nil {
		return nil, err
	}
	if cfg.Threshold == config.DefaultThreshold && !cfg.Calibrate {
		cfg.Threshold, _ = calibration.Threshold(cfg.CalibrationProfile)
	}

	return &Application{
		Config:    cfg,
		Registry:  registry,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}

	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitThemeFor(a.Config.NoColor, os.Stdout)

	switch {
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	case a.Config.ServerMode:
		return a.runServer()
	}
	return a.runReduce(ctx, out)
}

// ConfigureLogging points the global zerolog logger, used for backend debug
// events and progress logs, at w with the configured level. It is called once
// by main before Run.
func ConfigureLogging(cfg config.AppConfig, w io.Writer) {
	level := cfg.Level()
	zerolog.SetGlobalLevel(level)
	log.Logger = logging.NewConsoleLogger(w, "fxtree", level, cfg.NoColor).Zerolog()
}

// runCalibration times the parallel backend on a batch of the configured
// shape and saves the fastest threshold to the calibration profile.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	return calibration.Run(ctx, a.Registry, out, calibration.Options{
		InputWidth:  a.Config.InputWidth,
		BatchSize:   max(a.Config.BatchSize, calibration.DefaultBatchSize),
		Workers:     a.Config.Workers,
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
	})
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	logger := logging.NewLogger(os.Stdout, "server", a.Config.Level())
	srv := server.NewServer(a.Registry, a.Config, server.WithLogger(logger))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// job is one reduction to run: its graph, its inputs and the expected
// value, if known.
type job struct {
	name     string
	graph    *tree.Graph
	inputs   []fixed.Complex
	expected *batch.Literal
}

// loadJob resolves the inputs from -inputs, -values or the built-in batches
// and builds the graph for them.
func (a *Application) loadJob() (*job, error) {
	cfg := a.Config
	var f *batch.File
	switch {
	case cfg.InputsFile != "":
		loaded, err := batch.Load(cfg.InputsFile)
		if err != nil {
			return nil, err
		}
		f = loaded
	case cfg.Values != "":
		lits, err := batch.ParseInline(cfg.Values)
		if err != nil {
			return nil, err
		}
		f = &batch.File{Name: "inline values", InputWidth: cfg.InputWidth, Inputs: lits}
	case cfg.InputWidth == config.DefaultInputWidth && cfg.BatchSize == config.DefaultBatchSize:
		f = batch.Sample()
	default:
		// Check the shape before building the batch, which holds N values.
		if _, err := widths.New(cfg.InputWidth, cfg.BatchSize, cfg.GrowthModel()); err != nil {
			return nil, err
		}
		f = batch.Extreme(cfg.InputWidth, cfg.BatchSize)
	}

	inputs, err := f.Values()
	if err != nil {
		return nil, err
	}
	if cfg.BatchSizeSet && len(inputs) != cfg.BatchSize {
		return nil, apperrors.NewPreconditionError("n",
			fmt.Sprintf("does not match the %d inputs of %s", len(inputs), f.Name), cfg.BatchSize)
	}
	m, err := widths.New(f.InputWidth, len(inputs), cfg.GrowthModel())
	if err != nil {
		return nil, err
	}

	j := &job{
		name:     f.Name,
		graph:    tree.Build(m, tree.WithOverflow(cfg.OverflowMode())),
		inputs:   inputs,
		expected: f.Expected,
	}
	if cfg.Expect != "" {
		re, im, err := fixed.ParseParts(cfg.Expect)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid expected value: %v", err)
		}
		j.expected = &batch.Literal{Re: re, Im: im}
	}
	return j, nil
}

// buildReducers constructs one reducer per backend of -backend and -compare.
// The returned backends must be closed by the caller.
func (a *Application) buildReducers(g *tree.Graph) ([]reduction.Reducer, []backend.Backend, error) {
	var (
		reducers []reduction.Reducer
		backends []backend.Backend
	)
	for _, spec := range a.Config.BackendSpecs() {
		b, err := a.Registry.New(a.Config.ResolveSpec(spec))
		if err != nil {
			closeBackends(backends)
			return nil, nil, err
		}
		backends = append(backends, b)
		reducers = append(reducers, reduction.NewAdapter(b, g))
	}
	return reducers, backends, nil
}

func closeBackends(backends []backend.Backend) {
	for _, b := range backends {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Str("backend", b.Name()).Msg("closing backend")
		}
	}
}

// runReduce orchestrates the execution of the CLI reduction command.
func (a *Application) runReduce(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	// Banners and progress are skipped in quiet and JSON modes; failures are
	// then reported on the error writer.
	machine := a.Config.Quiet || a.Config.JSONOutput
	infoOut, statusOut := out, out
	if machine {
		infoOut, statusOut = io.Discard, a.ErrWriter
	}
	colors := cli.CLIColorProvider{}

	j, err := a.loadJob()
	if err != nil {
		return apperrors.HandleReductionError(err, 0, statusOut, colors)
	}
	if a.Config.ShowGraph {
		cli.DisplayGraph(j.graph, infoOut)
		fmt.Fprintln(infoOut)
	}

	reducers, backends, err := a.buildReducers(j.graph)
	if err != nil {
		return apperrors.HandleReductionError(err, 0, statusOut, colors)
	}
	defer closeBackends(backends)

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	cli.PrintExecutionConfig(a.Config, j.graph, infoOut)
	fmt.Fprintf(infoOut, "Batch: %s\n", j.name)
	cli.PrintDevice(backends[0].Device(), infoOut)
	cli.PrintExecutionMode(names, infoOut)

	results := orchestration.ExecuteReductions(ctx, reducers, j.inputs, infoOut,
		reduction.NewLoggingObserver(log.Logger, progressLogThreshold),
		reduction.NewMetricsObserver(),
	)
	best, code := orchestration.AnalyzeComparisonResults(results, statusOut)
	if code != apperrors.ExitSuccess {
		return code
	}

	return a.report(best.Result, j, out, infoOut, statusOut)
}

// report displays the result, the layer trace when verbose, and the outcome
// of the expected-value check.
func (a *Application) report(result reduction.Result, j *job, out, infoOut, statusOut io.Writer) int {
	colors := cli.CLIColorProvider{}
	rep := cli.NewReport(result, j.graph)

	var expected *fixed.Complex
	if j.expected != nil {
		width := max(result.Format.Width, fixed.MinWidth(j.expected.Re), fixed.MinWidth(j.expected.Im))
		v, err := fixed.FromBig(width, j.expected.Re, j.expected.Im)
		if err != nil {
			return apperrors.HandleReductionError(err, 0, statusOut, colors)
		}
		expected = &v
		rep = rep.WithCheck(v.String(), v.Equal(result.Value))
	}

	fmt.Fprintln(infoOut)
	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Details:    a.Config.Verbose,
		JSON:       a.Config.JSONOutput,
	}
	if err := cli.DisplayResultWithConfig(out, rep, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if a.Config.Verbose {
		trace, err := tree.Trace(j.graph, j.inputs)
		if err != nil {
			return apperrors.HandleReductionError(err, 0, statusOut, colors)
		}
		fmt.Fprintln(infoOut)
		cli.DisplayLayers(trace, infoOut)
	}

	if expected == nil {
		return apperrors.ExitSuccess
	}
	fmt.Fprintln(infoOut)
	if err := orchestration.CheckExpected(*expected, result.Value, infoOut); err != nil {
		return apperrors.HandleReductionError(err, result.Duration, statusOut, colors)
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

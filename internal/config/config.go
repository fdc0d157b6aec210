// Package config provides the configuration management for the fxtree application.
// It defines the data structure for the configuration, handles the parsing of
// command-line arguments, and performs validation on the configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/widths"
)

const (
	// EnvPrefix is the prefix for all environment variables used by fxtree.
	// Environment variables provide an alternative to CLI flags for configuration.
	EnvPrefix = "FXTREE_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultInputWidth is the default bit width of each input part.
	DefaultInputWidth = 8
	// DefaultBatchSize is the default number of inputs.
	DefaultBatchSize = 8
	// DefaultBackend is the default execution backend.
	DefaultBackend = "emulator"
	// DefaultGrowth is the default width growth model.
	DefaultGrowth = "exact"
	// DefaultOverflow is the default overflow policy.
	DefaultOverflow = "error"
	// DefaultThreshold leaves the parallel threshold to the calibration
	// profile, or to an estimate from the CPU count when there is none.
	DefaultThreshold = 0
	// DefaultTimeout is the default reduction timeout.
	DefaultTimeout = time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"
)

// AppConfig aggregates the application's configuration parameters, parsed from
// command-line flags. It encapsulates all settings that control the execution,
// from the shape of the reduction to the backends that run it.
type AppConfig struct {
	// InputWidth is the bit width of each part of an input value.
	InputWidth int
	// BatchSize is the number of inputs (a power of two).
	BatchSize int
	// BatchSizeSet reports whether -n (or FXTREE_N) was given. A batch read
	// from -inputs or -values must then have exactly BatchSize values.
	BatchSizeSet bool
	// InputsFile is the path to a YAML or JSON batch file.
	InputsFile string
	// Values is an inline list of inputs such as "(1,0),(0,1)".
	Values string
	// Backend names the execution backend, optionally with a configuration
	// ("parallel:workers=4").
	Backend string
	// Compare is a comma-separated list of additional backends whose results
	// are cross-checked against Backend.
	Compare string
	// Growth selects the width growth model ("exact" or "linear").
	Growth string
	// Overflow selects what happens when a product exceeds its layer width
	// ("error" or "wrap").
	Overflow string
	// Workers bounds the parallel backend's worker pool (0 means GOMAXPROCS).
	Workers int
	// Threshold is the pair count below which a layer runs inline. Zero means
	// calibrated or estimated.
	Threshold int
	// Timeout sets the maximum duration for the whole run.
	Timeout time.Duration
	// Expect is the expected result in "(re,im)" notation. When empty, the
	// batch file's expected value (if any) is used.
	Expect string
	// ShowGraph, if true, prints the reduction plan before running it.
	ShowGraph bool
	// JSONOutput, if true, outputs the result in JSON format.
	JSONOutput bool
	// Quiet mode - minimal output for scripting purposes.
	Quiet bool
	// Verbose, if true, displays every layer's intermediate values.
	Verbose bool
	// OutputFile, if specified, saves the result to this file path.
	OutputFile string
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// TrustedProxies is a comma-separated list of proxy addresses or CIDR
	// networks whose forwarding headers identify the client in server mode.
	TrustedProxies string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// LogLevel is the minimum zerolog level ("debug", "info", "warn", ...).
	LogLevel string
	// ShowVersion, if true, prints version information and exits.
	ShowVersion bool
	// Calibrate, if true, times the parallel backend over a range of
	// thresholds and stores the fastest in the calibration profile.
	Calibrate bool
	// CalibrationProfile is the path of the calibration profile. When empty,
	// the profile lives in the user's home directory.
	CalibrationProfile string
}

// GrowthModel returns the parsed growth model. Only valid after Validate.
func (c AppConfig) GrowthModel() widths.Growth {
	g, _ := widths.ParseGrowth(c.Growth)
	return g
}

// OverflowMode returns the parsed overflow policy. Only valid after Validate.
func (c AppConfig) OverflowMode() fixed.OverflowMode {
	m, _ := fixed.ParseOverflowMode(c.Overflow)
	return m
}

// Level returns the parsed log level, falling back to info.
func (c AppConfig) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// BackendSpecs returns the primary backend followed by the comparison
// backends, in order and without duplicates.
func (c AppConfig) BackendSpecs() []string {
	specs := []string{c.Backend}
	for _, s := range strings.Split(c.Compare, ",") {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(specs, s) {
			specs = append(specs, s)
		}
	}
	return specs
}

// ResolveSpec completes a bare "parallel" spec with the -workers and
// -threshold settings. Specs that carry their own configuration are returned
// unchanged.
func (c AppConfig) ResolveSpec(spec string) string {
	name, cfg := backend.ParseSpec(spec)
	if name != "parallel" || cfg != "" {
		return spec
	}
	var opts []string
	if c.Workers > 0 {
		opts = append(opts, fmt.Sprintf("workers=%d", c.Workers))
	}
	if c.Threshold > 0 {
		opts = append(opts, fmt.Sprintf("threshold=%d", c.Threshold))
	}
	if len(opts) == 0 {
		return name
	}
	return name + ":" + strings.Join(opts, ",")
}

// TrustedProxyPrefixes returns the parsed -trusted-proxies list. A bare
// address becomes a single-host prefix. Only valid after Validate.
func (c AppConfig) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := parseTrustedProxies(c.TrustedProxies)
	return prefixes
}

func parseTrustedProxies(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures that numerical values are within valid ranges and that the chosen
// backends are registered.
//
// Parameters:
//   - availableBackends: A slice of registered backend names.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(availableBackends []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.InputWidth < 1 || c.InputWidth > widths.MaxInputWidth {
		return apperrors.NewConfigError("input width must be in [1, %d]: %d", widths.MaxInputWidth, c.InputWidth)
	}
	if c.BatchSize < 1 {
		return apperrors.NewConfigError("batch size must be positive: %d", c.BatchSize)
	}
	if c.BatchSize > 1<<widths.MaxLayers {
		return apperrors.NewConfigError("batch size exceeds the maximum of 2^%d: %d", widths.MaxLayers, c.BatchSize)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}
	if c.Threshold < 0 {
		return apperrors.NewConfigError("parallelism threshold cannot be negative: %d", c.Threshold)
	}
	if c.InputsFile != "" && c.Values != "" {
		return apperrors.NewConfigError("-inputs and -values are mutually exclusive")
	}
	if _, err := widths.ParseGrowth(c.Growth); err != nil {
		return err
	}
	if _, err := fixed.ParseOverflowMode(c.Overflow); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if c.Expect != "" {
		if _, _, err := fixed.ParseParts(c.Expect); err != nil {
			return apperrors.NewConfigError("invalid expected value: %v", err)
		}
	}
	if _, err := parseTrustedProxies(c.TrustedProxies); err != nil {
		return apperrors.NewConfigError("invalid trusted proxy: %v", err)
	}
	for _, spec := range c.BackendSpecs() {
		name, _ := backend.ParseSpec(spec)
		if !slices.Contains(availableBackends, name) {
			return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: [%s]", name, strings.Join(availableBackends, ", "))
		}
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values, and
// handles the parsing process. After parsing, it performs validation on the
// resulting configuration.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: A slice of strings representing the command-line arguments
//     (typically os.Args[1:]).
//   - errorWriter: An io.Writer where parsing errors and usage information
//     will be printed.
//   - availableBackends: A slice of registered backend names for validation.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableBackends []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	backendHelp := fmt.Sprintf("Execution backend, optionally 'name:key=value,...'. One of [%s].", strings.Join(availableBackends, ", "))

	config := AppConfig{}
	fs.IntVar(&config.InputWidth, "width", DefaultInputWidth, "Bit width of each part of an input value.")
	fs.IntVar(&config.BatchSize, "n", DefaultBatchSize, "Number of inputs (must be a power of two).")
	fs.StringVar(&config.InputsFile, "inputs", "", "Path to a YAML or JSON batch file.")
	fs.StringVar(&config.Values, "values", "", "Inline inputs, e.g. '(1,0),(0,1)'.")
	fs.StringVar(&config.Backend, "backend", DefaultBackend, backendHelp)
	fs.StringVar(&config.Compare, "compare", "", "Comma-separated backends to cross-check against -backend.")
	fs.StringVar(&config.Growth, "growth", DefaultGrowth, "Width growth model: 'exact' or 'linear'.")
	fs.StringVar(&config.Overflow, "overflow", DefaultOverflow, "Overflow policy: 'error' or 'wrap'.")
	fs.IntVar(&config.Workers, "workers", 0, "Worker count of the parallel backend (0 = GOMAXPROCS).")
	fs.IntVar(&config.Threshold, "threshold", DefaultThreshold, "Pairs per layer below which the parallel backend runs inline (0 = calibrated).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the reduction.")
	fs.StringVar(&config.Expect, "expect", "", "Expected result '(re,im)'; reports PASSED or FAILED.")
	fs.BoolVar(&config.ShowGraph, "graph", false, "Print the reduction plan before running it.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Display the values of every layer.")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the result.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.StringVar(&config.TrustedProxies, "trusted-proxies", "", "Comma-separated proxy addresses or CIDRs whose X-Forwarded-For is trusted in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error.")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Time the parallel backend's thresholds and save the fastest.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path of the calibration profile (default ~/.fxtree_calibration.json).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Backend = strings.ToLower(config.Backend)
	config.Growth = strings.ToLower(config.Growth)
	config.Overflow = strings.ToLower(config.Overflow)
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.ShowVersion {
		return config, nil
	}
	if err := config.Validate(availableBackends); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}

// setCustomUsage replaces the default usage message with one that groups the
// reduction flags before the output and server flags.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [flags]\n\n", fs.Name())
		fmt.Fprintln(out, "Multiplies a batch of complex fixed-point values through a balanced binary tree.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Every flag can also be set through an environment variable %s<FLAG>,\n", EnvPrefix)
		fmt.Fprintln(out, "e.g. FXTREE_BACKEND=parallel. Command-line flags take precedence.")
	}
}

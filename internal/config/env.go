// Package config provides the configuration management for the fxtree application.
// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - FXTREE_WIDTH: Input width in bits (int)
//   - FXTREE_N: Batch size (int)
//   - FXTREE_INPUTS: Batch file path (string)
//   - FXTREE_VALUES: Inline inputs (string)
//   - FXTREE_BACKEND: Execution backend (string)
//   - FXTREE_COMPARE: Cross-check backends (string)
//   - FXTREE_GROWTH: Growth model (string: exact, linear)
//   - FXTREE_OVERFLOW: Overflow policy (string: error, wrap)
//   - FXTREE_WORKERS: Parallel backend workers (int)
//   - FXTREE_THRESHOLD: Inline threshold in pairs (int)
//   - FXTREE_TIMEOUT: Reduction timeout (duration: "5m", "30s")
//   - FXTREE_EXPECT: Expected result (string)
//   - FXTREE_PORT: Port for server mode (string)
//   - FXTREE_TRUSTED_PROXIES: Trusted proxy addresses or CIDRs (string)
//   - FXTREE_OUTPUT: Output file path (string)
//   - FXTREE_LOG_LEVEL: Log level (string)
//   - FXTREE_CALIBRATION_PROFILE: Calibration profile path (string)
//   - FXTREE_SERVER, FXTREE_JSON, FXTREE_QUIET, FXTREE_VERBOSE, FXTREE_GRAPH,
//     FXTREE_NO_COLOR, FXTREE_CALIBRATE: (bool: true/false, 1/0, yes/no)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "width") {
		config.InputWidth = getEnvInt("WIDTH", config.InputWidth)
	}
	if isFlagSet(fs, "n") {
		config.BatchSizeSet = true
	} else {
		config.BatchSize = getEnvInt("N", config.BatchSize)
		_, err := strconv.Atoi(os.Getenv(EnvPrefix + "N"))
		config.BatchSizeSet = err == nil
	}
	if !isFlagSet(fs, "workers") {
		config.Workers = getEnvInt("WORKERS", config.Workers)
	}
	if !isFlagSet(fs, "threshold") {
		config.Threshold = getEnvInt("THRESHOLD", config.Threshold)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	overrides := []struct {
		flag, env string
		dst       *string
	}{
		{"inputs", "INPUTS", &config.InputsFile},
		{"values", "VALUES", &config.Values},
		{"backend", "BACKEND", &config.Backend},
		{"compare", "COMPARE", &config.Compare},
		{"growth", "GROWTH", &config.Growth},
		{"overflow", "OVERFLOW", &config.Overflow},
		{"expect", "EXPECT", &config.Expect},
		{"port", "PORT", &config.Port},
		{"trusted-proxies", "TRUSTED_PROXIES", &config.TrustedProxies},
		{"log-level", "LOG_LEVEL", &config.LogLevel},
		{"calibration-profile", "CALIBRATION_PROFILE", &config.CalibrationProfile},
	}
	for _, s := range overrides {
		if !isFlagSet(fs, s.flag) {
			*s.dst = getEnvString(s.env, *s.dst)
		}
	}
	if !isFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "v") {
		config.Verbose = getEnvBool("VERBOSE", config.Verbose)
	}
	if !isFlagSet(fs, "graph") {
		config.ShowGraph = getEnvBool("GRAPH", config.ShowGraph)
	}
	if !isFlagSet(fs, "quiet", "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "calibrate") {
		config.Calibrate = getEnvBool("CALIBRATE", config.Calibrate)
	}
}

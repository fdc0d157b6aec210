// Package app provides the core application structure for the fxtree CLI.
// It parses the configuration, loads the batch, runs the reduction on the
// selected backends and reports the result, or starts the HTTP server.
package app

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/kernels"
	"github.com/agbru/fxtree/internal/widths"
)

// Build-time variables set via -ldflags.
//
//	go build -ldflags="-X github.com/agbru/fxtree/internal/app.Version=v1.2.3 -X github.com/agbru/fxtree/internal/app.Commit=abc123 -X github.com/agbru/fxtree/internal/app.BuildDate=2025-01-01T00:00:00Z" ./cmd/fxtree
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args hold a version flag, in any position
// (e.g., "fxtree -server --version").
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-V" {
			return true
		}
	}
	return false
}

// VersionData describes the build: its version stamps, the backends compiled
// in, the shapes that have a generated kernel, and the reduction limits.
type VersionData struct {
	Version       string   `json:"version"`
	Commit        string   `json:"commit"`
	BuildDate     string   `json:"build_date"`
	GoVersion     string   `json:"go_version"`
	Platform      string   `json:"platform"`
	Backends      []string `json:"backends"`
	Kernels       []string `json:"kernels"`
	MaxInputWidth int      `json:"max_input_width"`
	MaxBatchSize  int      `json:"max_batch_size"`
}

// GetVersionInfo returns the version information of this build.
func GetVersionInfo() VersionData {
	shapes := kernels.Shapes()
	names := make([]string, len(shapes))
	for i, s := range shapes {
		names[i] = s.String()
	}
	return VersionData{
		Version:       Version,
		Commit:        Commit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		Backends:      backend.Default.Names(),
		Kernels:       names,
		MaxInputWidth: widths.MaxInputWidth,
		MaxBatchSize:  1 << widths.MaxLayers,
	}
}

// PrintVersion writes the version information to out.
//
// Parameters:
//   - out: The writer to output version information to.
func PrintVersion(out io.Writer) {
	info := GetVersionInfo()
	fmt.Fprintf(out, "fxtree %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s\n", info.Platform)
	fmt.Fprintf(out, "  Backends:   %s\n", strings.Join(info.Backends, ", "))
	fmt.Fprintf(out, "  Kernels:    %s\n", strings.Join(info.Kernels, ", "))
	fmt.Fprintf(out, "  Limits:     width <= %d, n <= %d\n", info.MaxInputWidth, info.MaxBatchSize)
}

// Command fxtreegen writes unrolled reduction kernels for a list of shapes.
//
// Usage:
//
//	fxtreegen -shapes 8x2,8x8,16x16 -out internal/kernels
//
// Each shape is <input width>x<batch size>; the batch size must be a power of
// two. One file per shape is written, named reduce_w<W>_n<N>.go.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agbru/fxtree/internal/codegen"
	"github.com/agbru/fxtree/internal/widths"
)

func main() {
	shapes := flag.String("shapes", "8x2,8x8,16x16", "Comma-separated list of <width>x<batch size> shapes")
	outputDir := flag.String("out", "internal/kernels", "Output directory for the generated kernels")
	pkg := flag.String("pkg", "kernels", "Package name of the generated files")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(*shapes, *outputDir, *pkg, logger); err != nil {
		logger.Error().Err(err).Msg("generation failed")
		os.Exit(1)
	}
}

func run(shapes, outputDir, pkg string, logger zerolog.Logger) error {
	models, err := parseShapes(shapes)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	opts := codegen.DefaultOptions()
	opts.Package = pkg
	for _, m := range models {
		src, err := codegen.Kernel(m, opts)
		if err != nil {
			return fmt.Errorf("shape %s: %w", m, err)
		}
		path := filepath.Join(outputDir, codegen.FileName(m.InputWidth(), m.BatchSize()))
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return err
		}
		logger.Info().
			Str("file", path).
			Int("input_width", m.InputWidth()).
			Int("batch_size", m.BatchSize()).
			Ints("widths", m.Widths()).
			Msg("kernel written")
	}
	return nil
}

func parseShapes(list string) ([]widths.Model, error) {
	var models []widths.Model
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ws, ns, ok := strings.Cut(item, "x")
		if !ok {
			return nil, fmt.Errorf("invalid shape %q: want <width>x<batch size>", item)
		}
		w, err := strconv.Atoi(ws)
		if err != nil {
			return nil, fmt.Errorf("invalid width in %q: %w", item, err)
		}
		n, err := strconv.Atoi(ns)
		if err != nil {
			return nil, fmt.Errorf("invalid batch size in %q: %w", item, err)
		}
		m, err := widths.New(w, n, widths.GrowthExact)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", item, err)
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no shapes given")
	}
	return models, nil
}

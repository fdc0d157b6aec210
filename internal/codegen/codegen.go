// Package codegen writes reduction kernels: Go functions in which every layer
// and every multiplication of the tree has been expanded into its own
// statement, with the width of each layer fixed in the source. The generated
// files register themselves with the kernels package and are executed by the
// compiled backend.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"

	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/unroll"
	"github.com/agbru/fxtree/internal/widths"
)

// Options configures the generated file.
type Options struct {
	// Package is the package clause of the generated file.
	Package string
	// Register is the function the generated init calls with
	// (inputWidth, batchSize, kernel). Empty means "Register".
	Register string
}

// DefaultOptions targets the kernels package.
func DefaultOptions() Options {
	return Options{Package: "kernels", Register: "Register"}
}

// FuncName returns the kernel function name of a shape, e.g. "reduceW8N8".
func FuncName(inputWidth, batchSize int) string {
	return fmt.Sprintf("reduceW%dN%d", inputWidth, batchSize)
}

// FileName returns the generated file name of a shape, e.g. "reduce_w8_n8.go".
func FileName(inputWidth, batchSize int) string {
	return fmt.Sprintf("reduce_w%d_n%d.go", inputWidth, batchSize)
}

// Kernel generates the formatted source of the unrolled kernel of m.
//
// Parameters:
//   - m: The width model. Only exact growth is supported, since the kernel
//     multiplies without overflow checks.
//   - opts: Output options.
//
// Returns:
//   - []byte: The gofmt-formatted source file.
//   - error: A PreconditionError for unsupported models, or a formatting error.
func Kernel(m widths.Model, opts Options) ([]byte, error) {
	if m.Growth() != widths.GrowthExact {
		return nil, apperrors.NewPreconditionError("growth",
			"kernels are generated for exact growth only", m.Growth().String())
	}
	if opts.Package == "" {
		opts.Package = "kernels"
	}
	if opts.Register == "" {
		opts.Register = "Register"
	}

	g := tree.Build(m)
	w, n, k := m.InputWidth(), m.BatchSize(), m.Layers()
	fn := FuncName(w, n)
	prefix := fmt.Sprintf("w%dn%d", w, n)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by fxtreegen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", opts.Package)
	fmt.Fprintf(&buf, "import \"github.com/agbru/fxtree/internal/fixed\"\n\n")

	// Indexing a one-element array with N&(N-1) only compiles when N is a
	// power of two.
	fmt.Fprintf(&buf, "var _ = [1]struct{}{}[%d&%d]\n\n", n, n-1)

	if k > 0 {
		fmt.Fprintf(&buf, "var (\n")
		err := unroll.Emit(&buf, 1, k+1, func(l int) string {
			return fmt.Sprintf("\t%sL%d = fixed.Format{Width: %d}", prefix, l, m.WidthAtLayer(l))
		})
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	fmt.Fprintf(&buf, "func init() {\n\t%s(%d, %d, %s)\n}\n\n", opts.Register, w, n, fn)

	fmt.Fprintf(&buf, "// %s reduces %d values of %s to one %s.\n",
		fn, n, g.InputFormat(), g.OutputFormat())
	fmt.Fprintf(&buf, "func %s(l0 []fixed.Complex) fixed.Complex {\n", fn)
	fmt.Fprintf(&buf, "\t_ = l0[%d]\n", n-1)
	for _, layer := range g.Layers() {
		src, dst := layer.Index, layer.Index+1
		fmt.Fprintf(&buf, "\tvar l%d [%d]fixed.Complex\n", dst, len(layer.Ops))
		err := unroll.Emit(&buf, 0, len(layer.Ops), func(i int) string {
			op := layer.Ops[i]
			return fmt.Sprintf("\tl%d[%d] = fixed.Product(l%d[%d], l%d[%d], %sL%d)",
				dst, op.Dst, src, op.Left, src, op.Right, prefix, dst)
		})
		if err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(&buf, "\treturn l%d[0]\n}\n", k)

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated kernel %s: %w", fn, err)
	}
	return formatted, nil
}

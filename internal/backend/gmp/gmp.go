//go:build gmp

// Package gmp provides a backend that runs the reduction tree on GMP integers
// through github.com/ncw/gmp. It requires the "gmp" build tag and libgmp:
//
//	go build -tags=gmp ./...
//
// Without the tag the backend is still registered but reports itself
// unavailable.
package gmp

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ncw/gmp"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/fixed"
)

func init() {
	backend.Register(Name, description, func(string) (backend.Backend, error) {
		return New(), nil
	})
}

// Backend evaluates layers with GMP arithmetic.
type Backend struct{}

// New creates a GMP backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string        { return Name }
func (b *Backend) Description() string { return description }
func (b *Backend) Close() error        { return nil }

// Device reports the libgmp host device.
func (b *Backend) Device() backend.Device {
	return backend.Device{Name: "libgmp host", Kind: "gmp", Workers: 1}
}

// operand holds one working value as GMP integers.
type operand struct {
	re, im *gmp.Int
}

// Submit converts the inputs once, multiplies every layer with GMP integers
// and converts each product back to check it against its layer format.
func (b *Backend) Submit(ctx context.Context, req backend.Request) ([]fixed.Complex, error) {
	g := req.Graph
	return backend.RunLayers(ctx, req, func(_ context.Context, l int, prev []fixed.Complex) ([]fixed.Complex, error) {
		layer := g.Layer(l)
		ops := make([]operand, len(prev))
		for i, v := range prev {
			re, err := toGMP(v.Re())
			if err != nil {
				return nil, err
			}
			im, err := toGMP(v.Im())
			if err != nil {
				return nil, err
			}
			ops[i] = operand{re: re, im: im}
		}

		ac, bd := new(gmp.Int), new(gmp.Int)
		ad, bc := new(gmp.Int), new(gmp.Int)
		next := make([]fixed.Complex, len(layer.Ops))
		for _, op := range layer.Ops {
			x, y := ops[op.Left], ops[op.Right]
			ac.Mul(x.re, y.re)
			bd.Mul(x.im, y.im)
			ad.Mul(x.re, y.im)
			bc.Mul(x.im, y.re)
			ac.Sub(ac, bd)
			ad.Add(ad, bc)

			p, err := fixed.Fit(toBig(ac), toBig(ad), layer.Out, g.Overflow())
			if err != nil {
				var overflow *fixed.Overflow
				if errors.As(err, &overflow) {
					overflow.Layer = l + 1
				}
				return nil, err
			}
			next[op.Dst] = p
		}
		return next, nil
	})
}

func toGMP(x *big.Int) (*gmp.Int, error) {
	z, ok := new(gmp.Int).SetString(x.String(), 10)
	if !ok {
		return nil, fmt.Errorf("gmp: cannot convert %s", x)
	}
	return z, nil
}

func toBig(z *gmp.Int) *big.Int {
	x, _ := new(big.Int).SetString(z.String(), 10)
	return x
}

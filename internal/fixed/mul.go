package fixed

import (
	"fmt"
	"math/big"
	"strings"

	apperrors "github.com/agbru/fxtree/internal/errors"
)

// OverflowMode selects what a checked multiplication does with a product that
// does not fit its output format.
type OverflowMode int

const (
	// OverflowError rejects the product with an *Overflow.
	OverflowError OverflowMode = iota
	// OverflowWrap truncates each part to the output width in two's
	// complement, like assigning to a narrower hardware integer.
	OverflowWrap
)

func (m OverflowMode) String() string {
	switch m {
	case OverflowError:
		return "error"
	case OverflowWrap:
		return "wrap"
	default:
		return fmt.Sprintf("OverflowMode(%d)", int(m))
	}
}

// ParseOverflowMode converts a flag value ("error" or "wrap").
func ParseOverflowMode(s string) (OverflowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return OverflowError, nil
	case "wrap":
		return OverflowWrap, nil
	default:
		return 0, apperrors.NewConfigError("unknown overflow mode %q (want error or wrap)", s)
	}
}

// Overflow reports a product that does not fit the width of its layer.
type Overflow struct {
	// Layer is the index of the layer that produced the value (the output
	// layer of the multiplication), or -1 when unknown.
	Layer int
	// Format is the output format the product had to fit.
	Format Format
	// Re and Im are the exact parts of the product.
	Re, Im *big.Int
}

func (e *Overflow) Error() string {
	where := ""
	if e.Layer >= 0 {
		where = fmt.Sprintf(" at layer %d", e.Layer)
	}
	return fmt.Sprintf("product (%s,%s) overflows %s%s", e.Re, e.Im, e.Format, where)
}

// MulParts returns the exact parts of (a+bi)(c+di) = (ac-bd) + (ad+bc)i.
func MulParts(x, y Complex) (re, im *big.Int) {
	a, b := x.Re(), x.Im()
	c, d := y.Re(), y.Im()

	ac := new(big.Int).Mul(a, c)
	bd := new(big.Int).Mul(b, d)
	ad := new(big.Int).Mul(a, d)
	bc := new(big.Int).Mul(b, c)

	return ac.Sub(ac, bd), ad.Add(ad, bc)
}

// Mul multiplies x and y into the output format out.
//
// Parameters:
//   - x, y: The operands.
//   - out: The format of the product.
//   - mode: What to do when the exact product does not fit out.
//
// Returns:
//   - Complex: The product in format out.
//   - error: An *Overflow if mode is OverflowError and the product does not fit.
func Mul(x, y Complex, out Format, mode OverflowMode) (Complex, error) {
	re, im := MulParts(x, y)
	return Fit(re, im, out, mode)
}

// Fit stores exact parts computed elsewhere (for example by another integer
// library) into format out, applying mode when they do not fit.
func Fit(re, im *big.Int, out Format, mode OverflowMode) (Complex, error) {
	if out.Contains(re) && out.Contains(im) {
		return Complex{re: new(big.Int).Set(re), im: new(big.Int).Set(im), width: out.Width}, nil
	}
	if mode == OverflowWrap {
		return Complex{re: out.Wrap(re), im: out.Wrap(im), width: out.Width}, nil
	}
	return Complex{}, &Overflow{Layer: -1, Format: out, Re: new(big.Int).Set(re), Im: new(big.Int).Set(im)}
}

// Product multiplies x and y into out when the caller has already proven that
// the product fits, as in trees built with exact growth. It panics otherwise.
func Product(x, y Complex, out Format) Complex {
	p, err := Mul(x, y, out, OverflowError)
	if err != nil {
		panic(err)
	}
	return p
}

// Full multiplies all values at full precision, left to right. The result
// width is the smallest one that holds both parts.
func Full(values []Complex) Complex {
	re, im := big.NewInt(1), new(big.Int)
	for _, v := range values {
		vr, vi := v.Re(), v.Im()
		nr := new(big.Int).Mul(re, vr)
		nr.Sub(nr, new(big.Int).Mul(im, vi))
		ni := new(big.Int).Mul(re, vi)
		ni.Add(ni, new(big.Int).Mul(im, vr))
		re, im = nr, ni
	}
	w := MinWidth(re)
	if wi := MinWidth(im); wi > w {
		w = wi
	}
	return Complex{re: re, im: im, width: w}
}

// MinWidth returns the smallest signed width that holds x.
func MinWidth(x *big.Int) int {
	if x.Sign() >= 0 {
		return x.BitLen() + 1
	}
	t := new(big.Int).Neg(x)
	t.Sub(t, bigOne)
	return t.BitLen() + 1
}

// Package fixed implements complex two's-complement fixed-point values of an
// explicit bit width and the checked complex multiplication used by every
// layer of the reduction tree.
package fixed

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Complex is an immutable complex value whose real and imaginary parts are
// signed integers of the same width. Values are created by New, FromBig,
// Format.New or a multiplication, never mutated afterwards.
type Complex struct {
	re, im *big.Int
	width  int
}

// New builds a Complex of the given width from machine integers.
func New(width int, re, im int64) (Complex, error) {
	return FromBig(width, big.NewInt(re), big.NewInt(im))
}

// FromBig builds a Complex of the given width. The parts are copied.
//
// Parameters:
//   - width: The part width in bits.
//   - re: The real part.
//   - im: The imaginary part.
//
// Returns:
//   - Complex: The value.
//   - error: A RangeError if a part is outside [-2^(width-1), 2^(width-1)-1].
func FromBig(width int, re, im *big.Int) (Complex, error) {
	f := Format{Width: width}
	if !f.Contains(re) {
		return Complex{}, RangeError{Part: "real", Value: new(big.Int).Set(re), Format: f}
	}
	if !f.Contains(im) {
		return Complex{}, RangeError{Part: "imaginary", Value: new(big.Int).Set(im), Format: f}
	}
	return Complex{re: new(big.Int).Set(re), im: new(big.Int).Set(im), width: width}, nil
}

// MustNew is like New but panics if the value does not fit.
func MustNew(width int, re, im int64) Complex {
	c, err := New(width, re, im)
	if err != nil {
		panic(err)
	}
	return c
}

// Re returns a copy of the real part.
func (c Complex) Re() *big.Int { return c.part(c.re) }

// Im returns a copy of the imaginary part.
func (c Complex) Im() *big.Int { return c.part(c.im) }

func (c Complex) part(p *big.Int) *big.Int {
	if p == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(p)
}

// Width returns the part width in bits.
func (c Complex) Width() int { return c.width }

// Format returns the FixedComplex type of the value.
func (c Complex) Format() Format { return Format{Width: c.width} }

// IsZero reports whether both parts are zero.
func (c Complex) IsZero() bool {
	return (c.re == nil || c.re.Sign() == 0) && (c.im == nil || c.im.Sign() == 0)
}

// Equal reports whether both values have the same parts, regardless of width.
func (c Complex) Equal(o Complex) bool {
	return c.Re().Cmp(o.Re()) == 0 && c.Im().Cmp(o.Im()) == 0
}

// Identical reports whether both values have the same parts and width.
func (c Complex) Identical(o Complex) bool {
	return c.width == o.width && c.Equal(o)
}

// String returns "(re,im)".
func (c Complex) String() string {
	return fmt.Sprintf("(%s,%s)", c.Re(), c.Im())
}

type complexJSON struct {
	Re    string `json:"re"`
	Im    string `json:"im"`
	Width int    `json:"width"`
}

// MarshalJSON encodes the parts as decimal strings so that values wider than
// 53 bits survive JSON consumers that use float64 numbers.
func (c Complex) MarshalJSON() ([]byte, error) {
	return json.Marshal(complexJSON{Re: c.Re().String(), Im: c.Im().String(), Width: c.width})
}

// UnmarshalJSON decodes the form written by MarshalJSON and checks the range.
func (c *Complex) UnmarshalJSON(data []byte) error {
	var v complexJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	re, ok := new(big.Int).SetString(v.Re, 10)
	if !ok {
		return fmt.Errorf("invalid real part %q", v.Re)
	}
	im, ok := new(big.Int).SetString(v.Im, 10)
	if !ok {
		return fmt.Errorf("invalid imaginary part %q", v.Im)
	}
	out, err := FromBig(v.Width, re, im)
	if err != nil {
		return err
	}
	*c = out
	return nil
}

// ParseParts reads a complex literal "(re,im)". The parentheses are optional
// and the parts are decimal integers of any size.
//
// Parameters:
//   - s: The literal, e.g. "(-20, 20)".
//
// Returns:
//   - *big.Int: The real part.
//   - *big.Int: The imaginary part.
//   - error: An error if the literal is malformed.
func ParseParts(s string) (*big.Int, *big.Int, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "(")
	t = strings.TrimSuffix(t, ")")
	fields := strings.Split(t, ",")
	if len(fields) != 2 {
		return nil, nil, fmt.Errorf("invalid complex literal %q: want (re,im)", s)
	}
	re, ok := new(big.Int).SetString(strings.TrimSpace(fields[0]), 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid real part in %q", s)
	}
	im, ok := new(big.Int).SetString(strings.TrimSpace(fields[1]), 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid imaginary part in %q", s)
	}
	return re, im, nil
}

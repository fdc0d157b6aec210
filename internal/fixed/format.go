package fixed

import (
	"fmt"
	"math/big"
)

var bigOne = big.NewInt(1)

// Format describes the concrete type FixedComplex(Width): a complex value whose
// real and imaginary parts are both Width-bit two's-complement integers.
type Format struct {
	Width int
}

// String returns the type name, e.g. "FixedComplex(17)".
func (f Format) String() string {
	return fmt.Sprintf("FixedComplex(%d)", f.Width)
}

// Min returns the smallest representable part value, -2^(Width-1).
func (f Format) Min() *big.Int {
	return new(big.Int).Neg(new(big.Int).Lsh(bigOne, uint(f.Width-1)))
}

// Max returns the largest representable part value, 2^(Width-1) - 1.
func (f Format) Max() *big.Int {
	m := new(big.Int).Lsh(bigOne, uint(f.Width-1))
	return m.Sub(m, bigOne)
}

// Contains reports whether x is representable as one part of this format.
func (f Format) Contains(x *big.Int) bool {
	if f.Width < 1 {
		return false
	}
	// A w-bit signed value v satisfies -2^(w-1) <= v < 2^(w-1). For negative v,
	// (-v-1) has the same bit length as the positive bound test requires.
	if x.Sign() >= 0 {
		return x.BitLen() < f.Width
	}
	t := new(big.Int).Neg(x)
	t.Sub(t, bigOne)
	return t.BitLen() < f.Width
}

// Zero returns (0,0) in this format.
func (f Format) Zero() Complex {
	return Complex{re: new(big.Int), im: new(big.Int), width: f.Width}
}

// New builds a value of this format from machine integers.
//
// Parameters:
//   - re: The real part.
//   - im: The imaginary part.
//
// Returns:
//   - Complex: The value.
//   - error: A RangeError if either part does not fit the format.
func (f Format) New(re, im int64) (Complex, error) {
	return FromBig(f.Width, big.NewInt(re), big.NewInt(im))
}

// FromBig builds a value of this format from arbitrary-precision parts.
func (f Format) FromBig(re, im *big.Int) (Complex, error) {
	return FromBig(f.Width, re, im)
}

// Parse reads "(re,im)" and builds a value of this format.
func (f Format) Parse(s string) (Complex, error) {
	re, im, err := ParseParts(s)
	if err != nil {
		return Complex{}, err
	}
	return FromBig(f.Width, re, im)
}

// Wrap truncates x to Width bits and sign-extends the result, the way a
// hardware register of that width would store it.
func (f Format) Wrap(x *big.Int) *big.Int {
	mod := new(big.Int).Lsh(bigOne, uint(f.Width))
	r := new(big.Int).Mod(x, mod)
	if r.BitLen() == f.Width {
		r.Sub(r, mod)
	}
	return r
}

// RangeError reports a part value that does not fit its format.
type RangeError struct {
	Part   string
	Value  *big.Int
	Format Format
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s part %s does not fit %s [%s, %s]",
		e.Part, e.Value, e.Format, e.Format.Min(), e.Format.Max())
}

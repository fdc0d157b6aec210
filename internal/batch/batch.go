// Package batch loads reduction inputs: batch files in YAML (or JSON, which
// YAML accepts) and inline complex literals given on the command line.
//
// A batch file looks like:
//
//	name: sample
//	input_width: 8
//	expected: [40482624000, -3942432000]
//	inputs:
//	  - [10, 20]
//	  - [5, 10]
//
// Parts may be written as integers or as decimal strings, so expected values
// wider than 64 bits can be stated exactly.
package batch

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
)

// Literal is a complex value as written by the user, before it is checked
// against a width.
type Literal struct {
	Re, Im *big.Int
}

// String returns "(re,im)".
func (l Literal) String() string {
	return fmt.Sprintf("(%s,%s)", l.Re, l.Im)
}

// UnmarshalYAML accepts a two-element sequence [re, im] or a scalar "(re,im)".
func (l *Literal) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		re, im, err := fixed.ParseParts(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Re, l.Im = re, im
		return nil
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: complex value needs 2 parts, got %d", node.Line, len(node.Content))
		}
		parts := make([]*big.Int, 2)
		for i, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: part %d is not a scalar", c.Line, i)
			}
			v, ok := new(big.Int).SetString(strings.TrimSpace(c.Value), 10)
			if !ok {
				return fmt.Errorf("line %d: invalid integer %q", c.Line, c.Value)
			}
			parts[i] = v
		}
		l.Re, l.Im = parts[0], parts[1]
		return nil
	default:
		return fmt.Errorf("line %d: complex value must be [re, im] or \"(re,im)\"", node.Line)
	}
}

// UnmarshalJSON accepts [re, im], with parts as numbers or decimal strings,
// or a string "(re,im)".
func (l *Literal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		re, im, err := fixed.ParseParts(s)
		if err != nil {
			return err
		}
		l.Re, l.Im = re, im
		return nil
	}
	var parts []json.Number
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("complex value must be [re, im] or \"(re,im)\": %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("complex value needs 2 parts, got %d", len(parts))
	}
	re, ok := new(big.Int).SetString(parts[0].String(), 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", parts[0])
	}
	im, ok := new(big.Int).SetString(parts[1].String(), 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", parts[1])
	}
	l.Re, l.Im = re, im
	return nil
}

// MarshalJSON writes [re, im] with exact integer parts.
func (l Literal) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%s,%s]", l.Re, l.Im)), nil
}

// File is a parsed batch file.
type File struct {
	Name       string    `yaml:"name"`
	InputWidth int       `yaml:"input_width"`
	Expected   *Literal  `yaml:"expected"`
	Inputs     []Literal `yaml:"inputs"`
}

// Parse decodes a batch file.
//
// Parameters:
//   - data: YAML or JSON content.
//
// Returns:
//   - *File: The parsed file.
//   - error: A ConfigError if the content is malformed or incomplete.
func Parse(data []byte) (*File, error) {
	// Inputs are decoded node by node: yaml.v3 silently skips a null
	// sequence entry when the element type is a struct.
	var raw struct {
		Name       string      `yaml:"name"`
		InputWidth int         `yaml:"input_width"`
		Expected   *Literal    `yaml:"expected"`
		Inputs     []yaml.Node `yaml:"inputs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfigError("invalid batch file: %v", err)
	}
	if raw.InputWidth <= 0 {
		return nil, apperrors.NewConfigError("invalid batch file: input_width must be positive")
	}
	if len(raw.Inputs) == 0 {
		return nil, apperrors.NewConfigError("invalid batch file: no inputs")
	}
	f := &File{
		Name:       raw.Name,
		InputWidth: raw.InputWidth,
		Expected:   raw.Expected,
		Inputs:     make([]Literal, len(raw.Inputs)),
	}
	for i := range raw.Inputs {
		node := &raw.Inputs[i]
		if node.ShortTag() == nullTag {
			return nil, apperrors.NewConfigError("invalid batch file: line %d: inputs[%d] is null", node.Line, i)
		}
		if err := node.Decode(&f.Inputs[i]); err != nil {
			return nil, apperrors.NewConfigError("invalid batch file: %v", err)
		}
	}
	return f, nil
}

const nullTag = "!!null"

// Load reads and parses the batch file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("cannot read batch file: %v", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// Values converts the inputs of the file to its input width.
func (f *File) Values() ([]fixed.Complex, error) {
	return Values(f.InputWidth, f.Inputs)
}

var literalPattern = regexp.MustCompile(`\(\s*[-+]?\d+\s*,\s*[-+]?\d+\s*\)`)

// ParseInline reads a list of literals such as "(10,20),(5,10) (-20,20)".
// Anything other than literals, commas and spaces is rejected.
func ParseInline(s string) ([]Literal, error) {
	matches := literalPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return nil, apperrors.NewConfigError("no complex values in %q: want (re,im),(re,im),...", s)
	}
	var lits []Literal
	prev := 0
	for _, m := range matches {
		if gap := strings.Trim(s[prev:m[0]], " ,\t\n"); gap != "" {
			return nil, apperrors.NewConfigError("unexpected %q in value list", gap)
		}
		re, im, err := fixed.ParseParts(s[m[0]:m[1]])
		if err != nil {
			return nil, apperrors.NewConfigError("%v", err)
		}
		lits = append(lits, Literal{Re: re, Im: im})
		prev = m[1]
	}
	if tail := strings.Trim(s[prev:], " ,\t\n"); tail != "" {
		return nil, apperrors.NewConfigError("unexpected %q in value list", tail)
	}
	return lits, nil
}

// Values checks every literal against width and converts it.
//
// Parameters:
//   - width: The input width.
//   - lits: The literals, in order.
//
// Returns:
//   - []fixed.Complex: The values.
//   - error: A PreconditionError naming the first literal that does not fit.
func Values(width int, lits []Literal) ([]fixed.Complex, error) {
	out := make([]fixed.Complex, len(lits))
	for i, l := range lits {
		if l.Re == nil || l.Im == nil {
			return nil, apperrors.NewPreconditionError(fmt.Sprintf("inputs[%d]", i), "missing real or imaginary part", l.String())
		}
		v, err := fixed.FromBig(width, l.Re, l.Im)
		if err != nil {
			return nil, apperrors.NewPreconditionError(fmt.Sprintf("inputs[%d]", i), err.Error(), l.String())
		}
		out[i] = v
	}
	return out, nil
}

// sampleBatch is the batch reduced when no inputs are given.
const sampleBatch = `
name: built-in sample
input_width: 8
expected: [40482624000, -3942432000]
inputs: [[10, 20], [5, 10], [-20, 20], [20, 4], [24, 3], [4, 3], [56, 2], [34, 24]]
`

// Sample returns the built-in eight-value batch.
func Sample() *File {
	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		panic(err)
	}
	return f
}

// Extreme returns a batch of n copies of the most negative value of width,
// (-2^(width-1), -2^(width-1)), whose products have the largest magnitude
// at every layer. Its expected value is the exact product.
func Extreme(width, n int) *File {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	m.Neg(m)

	f := &File{
		Name:       fmt.Sprintf("extreme %d x FixedComplex(%d)", n, width),
		InputWidth: width,
		Inputs:     make([]Literal, n),
	}
	for i := range f.Inputs {
		f.Inputs[i] = Literal{Re: new(big.Int).Set(m), Im: new(big.Int).Set(m)}
	}
	// (m + m i)^n = m^n (1 + i)^n, and (1 + i)^2 = 2i, so
	// (1 + i)^n = 2^(n/2) i^(n/2) (1 + i)^(n mod 2).
	scale := new(big.Int).Exp(m, big.NewInt(int64(n)), nil)
	scale.Lsh(scale, uint(n/2))
	re, im := new(big.Int), new(big.Int)
	switch (n / 2) % 4 {
	case 0:
		re.Set(scale)
	case 1:
		im.Set(scale)
	case 2:
		re.Neg(scale)
	case 3:
		im.Neg(scale)
	}
	if n%2 == 1 {
		// (re + im i)(1 + i) = (re - im) + (re + im) i
		re, im = new(big.Int).Sub(re, im), new(big.Int).Add(re, im)
	}
	f.Expected = &Literal{Re: re, Im: im}
	return f
}

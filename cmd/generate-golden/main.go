package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData represents a single test case in the golden file.
type GoldenData struct {
	Name       string      `json:"name"`
	InputWidth int         `json:"input_width"`
	Inputs     [][2]string `json:"inputs"`
	Result     [2]string   `json:"result"`
}

func main() {
	outputDir := flag.String("out", "internal/backend/defaults/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "reduction_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// The cases are:
	// - the eight-value sample and two hand-checkable batches
	// - extreme batches, every input the most negative value of its width
	// - pseudo-random batches from a fixed LCG, reproducible without math/rand
	var data []GoldenData

	fmt.Println("Generating golden data...")

	data = append(data,
		newCase("sample", 8, [][2]int64{{10, 20}, {5, 10}, {-20, 20}, {20, 4}, {24, 3}, {4, 3}, {56, 2}, {34, 24}}),
		newCase("identity pair", 2, [][2]int64{{1, 0}, {0, 1}}),
		newCase("zeros", 4, make([][2]int64, 4)),
	)
	for _, w := range []int{2, 4, 8, 16} {
		for _, n := range []int{2, 4, 8, 16} {
			m := -(int64(1) << (w - 1))
			parts := make([][2]int64, n)
			for i := range parts {
				parts[i] = [2]int64{m, m}
			}
			data = append(data, newCase(fmt.Sprintf("extreme w%d n%d", w, n), w, parts))
		}
	}
	for _, w := range []int{3, 8, 12, 16, 32} {
		for _, n := range []int{2, 8, 16, 32} {
			data = append(data, newCase(fmt.Sprintf("lcg w%d n%d", w, n), w, lcgParts(w, n, uint64(w*100+n))))
		}
	}

	for _, d := range data {
		fmt.Printf("Generated %s\n", d.Name)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

func newCase(name string, width int, parts [][2]int64) GoldenData {
	d := GoldenData{Name: name, InputWidth: width, Inputs: make([][2]string, len(parts))}
	for i, p := range parts {
		d.Inputs[i] = [2]string{fmt.Sprint(p[0]), fmt.Sprint(p[1])}
	}
	re, im := fullProduct(parts)
	d.Result = [2]string{re.String(), im.String()}
	return d
}

// lcgParts draws n values of width w from a 64-bit linear congruential
// generator seeded with seed.
func lcgParts(w, n int, seed uint64) [][2]int64 {
	x := seed
	next := func() int64 {
		x = x*6364136223846793005 + 1442695040888963407
		span := uint64(1) << w
		return int64((x>>33)%span) - int64(span/2)
	}
	parts := make([][2]int64, n)
	for i := range parts {
		re := next()
		parts[i] = [2]int64{re, next()}
	}
	return parts
}

// fullProduct multiplies the values left to right with math/big, with no
// width limit. This serves as our "Oracle": the tree must reproduce it
// exactly under exact growth.
func fullProduct(parts [][2]int64) (*big.Int, *big.Int) {
	re, im := big.NewInt(1), big.NewInt(0)
	for _, p := range parts {
		a, b := big.NewInt(p[0]), big.NewInt(p[1])
		// (re + im i)(a + b i) = (re a - im b) + (re b + im a) i
		nre := new(big.Int).Sub(new(big.Int).Mul(re, a), new(big.Int).Mul(im, b))
		im = new(big.Int).Add(new(big.Int).Mul(re, b), new(big.Int).Mul(im, a))
		re = nre
	}
	return re, im
}

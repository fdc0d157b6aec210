// Package calibration tunes the parallel backend for the current machine.
// It estimates the inline threshold from the CPU count, or measures it by
// timing reductions, and caches the measured value in a profile.
package calibration

import (
	"runtime"
	"slices"
)

// MaxThreshold is the largest threshold tried. A layer of fewer pairs than
// MaxThreshold always runs inline, so this candidate measures the
// sequential cost.
const MaxThreshold = 1 << 16

// CandidateThresholds returns the thresholds to time, in increasing order.
// Machines with more cores try smaller thresholds, since the pool can absorb
// smaller layers profitably.
func CandidateThresholds() []int {
	numCPU := runtime.NumCPU()
	var thresholds []int
	switch {
	case numCPU == 1:
		// Only the sequential candidate makes sense.
	case numCPU <= 4:
		thresholds = []int{16, 64, 256, 1024}
	case numCPU <= 8:
		thresholds = []int{8, 16, 64, 256, 1024}
	default:
		thresholds = []int{2, 4, 8, 16, 64, 256, 1024}
	}
	return append(thresholds, MaxThreshold)
}

// EstimateThreshold returns a threshold for machines without a calibration
// profile. A pair costs far less than a goroutine handoff at small widths, so
// the estimate only goes parallel for layers of a few dozen pairs.
func EstimateThreshold() int {
	numCPU := runtime.NumCPU()
	switch {
	case numCPU == 1:
		return MaxThreshold
	case numCPU <= 4:
		return 64
	case numCPU <= 8:
		return 32
	default:
		return 16
	}
}

// ClampThreshold bounds t to [1, MaxThreshold].
func ClampThreshold(t int) int {
	return min(max(t, 1), MaxThreshold)
}

// fastest returns the threshold of the quickest successful result, preferring
// the larger threshold on a tie. It returns 0 when every trial failed.
func fastest(results []result) int {
	ok := slices.DeleteFunc(slices.Clone(results), func(r result) bool { return r.Err != nil })
	if len(ok) == 0 {
		return 0
	}
	best := ok[0]
	for _, r := range ok[1:] {
		if r.Duration < best.Duration || (r.Duration == best.Duration && r.Threshold > best.Threshold) {
			best = r
		}
	}
	return best.Threshold
}

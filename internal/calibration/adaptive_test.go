package calibration

import (
	"errors"
	"runtime"
	"slices"
	"testing"
	"time"
)

func TestCandidateThresholds(t *testing.T) {
	t.Parallel()
	thresholds := CandidateThresholds()

	if len(thresholds) == 0 || thresholds[len(thresholds)-1] != MaxThreshold {
		t.Fatalf("Expected thresholds to end with the sequential candidate, got %v", thresholds)
	}
	if !slices.IsSorted(thresholds) {
		t.Errorf("Expected increasing thresholds, got %v", thresholds)
	}
	for i, th := range thresholds {
		if th < 1 || th > MaxThreshold {
			t.Errorf("Threshold at index %d out of range: %d", i, th)
		}
	}
	if runtime.NumCPU() == 1 && len(thresholds) != 1 {
		t.Errorf("For 1 CPU, expected only the sequential candidate, got %v", thresholds)
	}
}

func TestEstimateThreshold(t *testing.T) {
	t.Parallel()
	th := EstimateThreshold()
	if th != ClampThreshold(th) {
		t.Errorf("Estimate %d outside [1, %d]", th, MaxThreshold)
	}
	if runtime.NumCPU() == 1 && th != MaxThreshold {
		t.Errorf("For 1 CPU, expected sequential threshold, got %d", th)
	}
}

func TestClampThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{64, 64},
		{MaxThreshold, MaxThreshold},
		{MaxThreshold + 1, MaxThreshold},
	}
	for _, tt := range tests {
		if got := ClampThreshold(tt.in); got != tt.want {
			t.Errorf("ClampThreshold(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFastest(t *testing.T) {
	t.Parallel()
	fail := errors.New("boom")
	tests := []struct {
		name    string
		results []result
		want    int
	}{
		{"empty", nil, 0},
		{"all failed", []result{{16, 0, fail}, {64, 0, fail}}, 0},
		{"quickest wins", []result{{16, 3 * time.Millisecond, nil}, {64, time.Millisecond, nil}, {256, 2 * time.Millisecond, nil}}, 64},
		{"failures skipped", []result{{16, 0, fail}, {64, 5 * time.Millisecond, nil}}, 64},
		{"tie prefers larger", []result{{16, time.Millisecond, nil}, {64, time.Millisecond, nil}}, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fastest(tt.results); got != tt.want {
				t.Errorf("fastest() = %d, want %d", got, tt.want)
			}
		})
	}
}

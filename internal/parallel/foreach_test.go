package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEach(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		n         int
		workers   int
		threshold int
	}{
		{"inline below threshold", 8, 4, 16},
		{"single worker", 8, 1, 0},
		{"concurrent", 64, 4, 2},
		{"default workers", 33, 0, 0},
		{"more workers than items", 3, 16, 0},
		{"empty", 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := make([]int, tt.n)
			err := ForEach(tt.n, tt.workers, tt.threshold, func(i int) error {
				out[i] = i * i
				return nil
			})
			if err != nil {
				t.Fatalf("ForEach returned %v", err)
			}
			for i, v := range out {
				if v != i*i {
					t.Fatalf("out[%d] = %d, want %d", i, v, i*i)
				}
			}
		})
	}
}

func TestForEachStopsOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var calls atomic.Int64
	err := ForEach(1000, 2, 0, func(i int) error {
		calls.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ForEach returned %v, want %v", err, boom)
	}
	if calls.Load() == 1000 {
		t.Error("ForEach did not skip the remaining items after a failure")
	}
}

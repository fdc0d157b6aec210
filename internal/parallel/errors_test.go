package parallel

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestErrorCollectorKeepsFirst(t *testing.T) {
	t.Parallel()
	var ec ErrorCollector
	if ec.Failed() || ec.Err() != nil {
		t.Fatal("zero collector should hold no error")
	}

	overflow := errors.New("layer 2 overflows FixedComplex(14)")
	ec.SetError(nil)
	if ec.Failed() {
		t.Fatal("nil error counted as failure")
	}
	ec.SetError(overflow)
	ec.SetError(errors.New("layer 2 pair 3 overflows"))
	ec.SetError(nil)
	if !errors.Is(ec.Err(), overflow) {
		t.Errorf("Err() = %v, want the first error %v", ec.Err(), overflow)
	}
	if !ec.Failed() {
		t.Error("Failed should be true after SetError")
	}
}

func TestErrorCollectorConcurrentPairs(t *testing.T) {
	t.Parallel()
	const pairs = 64
	var (
		ec    ErrorCollector
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if i%2 == 1 {
				ec.SetError(fmt.Errorf("pair %d overflows", i))
			}
		}()
	}
	close(start)
	wg.Wait()

	var pair int
	if _, err := fmt.Sscanf(ec.Err().Error(), "pair %d overflows", &pair); err != nil || pair%2 != 1 {
		t.Errorf("Expected an error from an odd pair, got %v", ec.Err())
	}
}

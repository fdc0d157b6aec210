package parallel

import (
	"runtime"
	"sync"
)

// ForEach calls fn(i) for every i in [0, n) using at most workers goroutines
// and returns the first error. Items are handed out in increasing order; once
// an item fails, items that have not started yet are skipped. With n below
// threshold, or a single worker, the items run inline on the caller's
// goroutine.
//
// Parameters:
//   - n: The number of items.
//   - workers: The maximum number of goroutines. Values <= 0 mean GOMAXPROCS.
//   - threshold: The smallest n worth running concurrently.
//   - fn: The work for one item. It must only write to state owned by item i.
//
// Returns:
//   - error: The first error returned by fn, or nil.
func ForEach(n, workers, threshold int, fn func(i int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if n < threshold || workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg   sync.WaitGroup
		ec   ErrorCollector
		next = make(chan int)
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				if ec.Failed() {
					continue
				}
				ec.SetError(fn(i))
			}
		}()
	}
	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
	return ec.Err()
}

// Package parallel provides the bounded fan-out used to evaluate the
// independent multiplications of one tree layer concurrently.
package parallel

import "sync"

// ErrorCollector keeps the first error reported by a group of goroutines.
// It is safe for concurrent use.
//
// Usage:
//
//	var ec parallel.ErrorCollector
//	var wg sync.WaitGroup
//	wg.Add(len(ops))
//	for i := range ops {
//	    go func(i int) {
//	        defer wg.Done()
//	        ec.SetError(evalOp(i))
//	    }(i)
//	}
//	wg.Wait()
//	return ec.Err()
type ErrorCollector struct {
	mu  sync.Mutex
	err error
}

// SetError records err if no error has been recorded yet. Nil is ignored.
//
// Parameters:
//   - err: The error to record.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Failed reports whether an error has been recorded. Workers use it to skip
// the remaining items once the group is known to fail.
func (c *ErrorCollector) Failed() bool {
	return c.Err() != nil
}

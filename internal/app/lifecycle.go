package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupSignals creates a context that is canceled when the process receives
// SIGINT (Ctrl+C) or SIGTERM. A running reduction then stops at its next
// layer barrier.
//
// Parameters:
//   - ctx: The parent context.
//
// Returns:
//   - context.Context: A context canceled on signal receipt.
//   - context.CancelFunc: Stops listening for signals (should be deferred).
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle bounds a run by a timeout and by termination signals,
// whichever comes first. A non-positive timeout leaves the run unbounded.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the run.
//
// Returns:
//   - context.Context: The bounded context.
//   - *CancelFuncs: The release functions, see Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	c := &CancelFuncs{}
	if timeout > 0 {
		ctx, c.CancelTimeout = context.WithTimeout(ctx, timeout)
	}
	ctx, c.StopSignals = SetupSignals(ctx)
	return ctx, c
}

// CancelFuncs holds the release functions of a lifecycle.
type CancelFuncs struct {
	// CancelTimeout cancels the timeout context. Nil without a timeout.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup releases the signal handler, then the timeout.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}

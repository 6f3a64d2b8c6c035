package actormgr

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ThreadGroup is the in-process "thread actor" fallback: instead of
// re-execing a separate OS process, it supervises goroutines with
// errgroup.Group, sharing this process's address space. Useful for tests
// and single-process deployments where the full process-per-actor model
// is unnecessary overhead.
type ThreadGroup struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewThreadGroup returns an empty group bound to ctx; cancelling ctx (or
// Stop) signals every running closure to wind down.
func NewThreadGroup(ctx context.Context) *ThreadGroup {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	return &ThreadGroup{g: g, ctx: ctx, cancel: cancel}
}

// Go runs fn as a supervised goroutine.
func (tg *ThreadGroup) Go(fn func(ctx context.Context) error) {
	tg.g.Go(func() error {
		return fn(tg.ctx)
	})
}

// Stop cancels the shared context; Wait still must be called to reap.
func (tg *ThreadGroup) Stop() {
	tg.cancel()
}

// Wait blocks until every goroutine has returned, yielding the first
// non-nil error if any.
func (tg *ThreadGroup) Wait() error {
	return tg.g.Wait()
}

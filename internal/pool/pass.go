package pool

import (
	"context"
	"sync/atomic"
	"time"
)

// Pass tracks one round of assignments. Its completion counter is shared by
// all workers of the pass; the last worker to finish closes Done.
type Pass struct {
	total     int
	remaining atomic.Int64
	completed atomic.Int64
	cancelled atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	started time.Time
	elapsed atomic.Int64
	done    chan struct{}
}

func newPass(n int) *Pass {
	ctx, cancel := context.WithCancel(context.Background())
	ps := &Pass{
		total:   n,
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	ps.remaining.Store(int64(n))
	if n == 0 {
		ps.complete()
	}
	return ps
}

func (ps *Pass) finish() {
	ps.completed.Add(1)
	if ps.remaining.Add(-1) == 0 {
		ps.complete()
	}
}

func (ps *Pass) complete() {
	ps.elapsed.Store(int64(time.Since(ps.started)))
	ps.cancel()
	close(ps.done)
}

func (ps *Pass) isDone() bool {
	select {
	case <-ps.done:
		return true
	default:
		return false
	}
}

// Done is closed once every item of the pass has been processed.
func (ps *Pass) Done() <-chan struct{} {
	return ps.done
}

// Wait blocks until the pass completes or ctx is done.
func (ps *Pass) Wait(ctx context.Context) error {
	select {
	case <-ps.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel asks the workers of the pass to stop early. The pass still
// completes once every worker has returned.
func (ps *Pass) Cancel() {
	if ps.isDone() {
		return
	}
	ps.cancelled.Store(true)
	ps.cancel()
}

// Cancelled reports whether Cancel was called before the pass completed.
func (ps *Pass) Cancelled() bool {
	return ps.cancelled.Load()
}

// Total is the number of items in the pass.
func (ps *Pass) Total() int {
	return ps.total
}

// Completed is the number of items processed so far.
func (ps *Pass) Completed() int {
	return int(ps.completed.Load())
}

// Elapsed is the wall time of the pass, or the time since it started if it
// is still running.
func (ps *Pass) Elapsed() time.Duration {
	if ps.isDone() {
		return time.Duration(ps.elapsed.Load())
	}
	return time.Since(ps.started)
}

// Package pool provides a fixed-size pool of persistent workers that run
// passes: each pass hands at most one item to each worker and completes when
// every handed-out item has been processed.
//
// Workers are created once and loop: block on their own start channel,
// process the assigned item, report to the pass, wait again. A new pass can
// only start after the previous one has fully completed, so no worker ever
// holds an item from an old pass while a new one is being assigned.
//
// Thread safety: Pool is safe for concurrent use.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// MaxWorkers is the hard cap on pool size.
const MaxWorkers = 64

var (
	ErrInvalidSize  = errors.New("invalid worker count")
	ErrClosed       = errors.New("pool closed")
	ErrBusy         = errors.New("previous pass still running")
	ErrTooManyItems = errors.New("more items than workers")
)

// Func processes one item on worker id. ctx is cancelled when the pass is
// cancelled or the pool is closed.
type Func[T any] func(ctx context.Context, id int, item T)

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger for worker lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type assignment[T any] struct {
	item T
	pass *Pass
}

// worker is one pool slot, addressed by its index in Pool.workers.
type worker[T any] struct {
	// start holds at most one pending assignment. It is always empty when
	// a pass begins because the previous pass only completes after every
	// worker has taken its assignment.
	start chan assignment[T]
}

// Pool is a fixed set of persistent workers.
type Pool[T any] struct {
	fn      Func[T]
	workers []worker[T]
	log     *slog.Logger

	// quit stops the worker loops.
	quit chan struct{}

	// wg waits for worker goroutines to exit.
	wg sync.WaitGroup

	running atomic.Bool

	// mu serializes pass setup and guards current.
	mu      sync.Mutex
	current *Pass
}

// New starts n workers running fn. n must be in [1, MaxWorkers].
func New[T any](n int, fn func(ctx context.Context, id int, item T), opts ...Option) (*Pool[T], error) {
	if n <= 0 || n > MaxWorkers {
		return nil, fmt.Errorf("%d workers (max %d): %w", n, MaxWorkers, ErrInvalidSize)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		fn:      fn,
		workers: make([]worker[T], n),
		log:     o.logger,
		quit:    make(chan struct{}),
	}
	for i := range p.workers {
		p.workers[i].start = make(chan assignment[T], 1)
	}
	p.running.Store(true)

	p.wg.Add(n)
	for i := range n {
		go p.worker(i)
	}
	p.log.Debug("pool started", "workers", n)
	return p, nil
}

// worker is the main loop of worker id.
func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	start := p.workers[id].start
	for {
		select {
		case <-p.quit:
			return
		case a := <-start:
			p.log.Debug("worker started", "worker", id)
			p.fn(a.pass.ctx, id, a.item)
			a.pass.finish()
			p.log.Debug("worker done", "worker", id)
		}
	}
}

// RunPass assigns items[i] to worker i and starts those workers, each exactly
// once. It fails without starting anything if the pool is closed, the
// previous pass has not completed, or there are more items than workers.
func (p *Pool[T]) RunPass(items []T) (*Pass, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return nil, ErrClosed
	}
	if p.current != nil && !p.current.isDone() {
		return nil, ErrBusy
	}
	if len(items) > len(p.workers) {
		return nil, fmt.Errorf("%d items for %d workers: %w", len(items), len(p.workers), ErrTooManyItems)
	}

	pass := newPass(len(items))
	p.current = pass
	for i, item := range items {
		p.workers[i].start <- assignment[T]{item: item, pass: pass}
	}
	return pass, nil
}

// Current returns the most recent pass, or nil before the first one.
func (p *Pool[T]) Current() *Pass {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Busy reports whether the most recent pass is still running.
func (p *Pool[T]) Busy() bool {
	ps := p.Current()
	return ps != nil && !ps.isDone()
}

// Workers returns the number of workers in the pool.
func (p *Pool[T]) Workers() int {
	return len(p.workers)
}

// IsRunning returns true until Close is called.
func (p *Pool[T]) IsRunning() bool {
	return p.running.Load()
}

// Close cancels the running pass, stops all workers and waits for them to
// exit. Assignments no worker picked up are completed without running, so
// Pass.Wait never hangs on a closed pool.
// Close is safe to call multiple times.
func (p *Pool[T]) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	if ps := p.Current(); ps != nil {
		ps.Cancel()
	}
	close(p.quit)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.workers {
		select {
		case a := <-w.start:
			a.pass.finish()
		default:
		}
	}
	p.log.Debug("pool closed", "workers", len(p.workers))
}

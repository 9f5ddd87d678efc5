package mandel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/marben/mandelzoom/internal/pool"
)

// Engine renders the Mandelbrot set into a PixelSink, one pass at a time,
// and re-renders on zoom.
//
// At most one pass runs at a time. A start request made while a pass is
// running is rejected with ErrPassInProgress and changes nothing; call Wait
// first to get blocking behavior.
type Engine struct {
	w, h       int
	sink       PixelSink
	pal        Palette
	onPassDone func(PassStats)

	mu          sync.Mutex
	pool        *pool.Pool[Tile]
	idle        chan struct{} // closed when the last pass and its callback are done
	region      Region
	initial     Region
	parallelism int
	history     []Region
	closed      bool
}

// NewEngine creates an engine for a w×h image. No worker is started until
// the first render.
func NewEngine(w, h int, sink PixelSink, opts ...EngineOption) (*Engine, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("image %dx%d: %w", w, h, ErrEmptyGrid)
	}
	if sink == nil {
		return nil, errors.New("nil pixel sink")
	}
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		w:          w,
		h:          h,
		sink:       sink,
		pal:        o.palette,
		onPassDone: o.onPassDone,
	}, nil
}

// StartInitialRender starts a pass over r with the given degree of
// parallelism and makes r the region Reset returns to. The zoom history is
// cleared.
func (e *Engine) StartInitialRender(r Region, parallelism int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.startPass(r, parallelism); err != nil {
		return err
	}
	e.initial = r
	e.history = nil
	return nil
}

// StartZoomRender re-renders the part of the current region selected by the
// pixel rectangle with corners start and end. Corners are clamped to the
// image; a selection with zero width or height is rejected.
func (e *Engine) StartZoomRender(start, end image.Point) error {
	sel, err := e.clampSelection(start, end)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.region.Valid() {
		return fmt.Errorf("zoom before initial render: %w", ErrInvalidRegion)
	}
	m := NewMapper(e.region, e.w, e.h)
	next := NewRegion(
		m.ToComplex(float64(sel.Min.X), float64(sel.Min.Y)),
		m.ToComplex(float64(sel.Max.X), float64(sel.Max.Y)),
	)
	if !next.Valid() {
		// float64 ran out of distinct values at this depth
		return fmt.Errorf("selection %s maps to %s: %w", sel, next, ErrDegenerateSelection)
	}

	prev := e.region
	if err := e.startPass(next, e.parallelism); err != nil {
		return err
	}
	e.history = append(e.history, prev)
	return nil
}

// ZoomOut re-renders the region shown before the last zoom.
func (e *Engine) ZoomOut() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return ErrNoHistory
	}
	prev := e.history[len(e.history)-1]
	if err := e.startPass(prev, e.parallelism); err != nil {
		return err
	}
	e.history = e.history[:len(e.history)-1]
	return nil
}

// Reset re-renders the region of the initial render.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initial.Valid() {
		return fmt.Errorf("reset before initial render: %w", ErrInvalidRegion)
	}
	if err := e.startPass(e.initial, e.parallelism); err != nil {
		return err
	}
	e.history = nil
	return nil
}

func (e *Engine) clampSelection(start, end image.Point) (image.Rectangle, error) {
	bounds := e.Bounds()
	clamp := func(p image.Point) image.Point {
		return image.Pt(
			min(max(p.X, bounds.Min.X), bounds.Max.X),
			min(max(p.Y, bounds.Min.Y), bounds.Max.Y),
		)
	}
	sel := image.Rectangle{Min: clamp(start), Max: clamp(end)}.Canon()
	if sel.Dx() == 0 || sel.Dy() == 0 {
		Logger().Warn("selection rejected", "start", start, "end", end)
		return sel, fmt.Errorf("selection %v-%v: %w", start, end, ErrDegenerateSelection)
	}
	return sel, nil
}

// startPass partitions r and starts the workers. On error nothing is
// changed. e.mu must be held.
func (e *Engine) startPass(r Region, parallelism int) error {
	if e.closed {
		return ErrClosed
	}
	if e.busy() {
		Logger().Warn("pass rejected", "region", r, "reason", ErrPassInProgress)
		return ErrPassInProgress
	}
	if !r.Valid() {
		return fmt.Errorf("region %s: %w", r, ErrInvalidRegion)
	}

	tiles, err := Partition(parallelism, e.w, e.h, r)
	if err != nil {
		Logger().Warn("pass rejected", "region", r, "parallelism", parallelism, "err", err)
		return err
	}

	p := e.pool
	if p == nil || !p.IsRunning() || p.Workers() != len(tiles) {
		p, err = pool.New(len(tiles), e.renderTile, pool.WithLogger(Logger()))
		if err != nil {
			return fmt.Errorf("worker pool: %w", err)
		}
	}

	ps, err := p.RunPass(tiles)
	if err != nil {
		if p != e.pool {
			p.Close()
		}
		if errors.Is(err, pool.ErrBusy) {
			return ErrPassInProgress
		}
		return fmt.Errorf("run pass: %w", err)
	}

	if p != e.pool {
		if e.pool != nil {
			e.pool.Close()
		}
		e.pool = p
	}
	e.region = r
	e.parallelism = parallelism
	idle := make(chan struct{})
	e.idle = idle

	Logger().Info("pass started", "region", r, "tiles", len(tiles), "covered", Coverage(tiles))
	go e.watch(ps, r, tiles, idle)
	return nil
}

// watch reports a pass once its workers are done and then marks the engine idle.
func (e *Engine) watch(ps *pool.Pass, r Region, tiles []Tile, idle chan struct{}) {
	<-ps.Done()
	stats := PassStats{
		Region:    r,
		Tiles:     len(tiles),
		Covered:   Coverage(tiles),
		Elapsed:   ps.Elapsed(),
		Cancelled: ps.Cancelled(),
	}
	Logger().Info("pass done", "region", r, "elapsed", stats.Elapsed, "cancelled", stats.Cancelled)
	if e.onPassDone != nil {
		e.onPassDone(stats)
	}
	close(idle)
}

func (e *Engine) renderTile(ctx context.Context, id int, t Tile) {
	Logger().Debug("tile started", "worker", id, "tile", t.Rect)
	if err := RenderTile(ctx, t, e.pal, e.sink); err != nil {
		Logger().Debug("tile interrupted", "worker", id, "err", err)
	}
}

func (e *Engine) busy() bool {
	if e.idle == nil {
		return false
	}
	select {
	case <-e.idle:
		return false
	default:
		return true
	}
}

// Busy reports whether a pass is running.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy()
}

// Wait blocks until the current pass, if any, is done and its OnPassDone
// callback has returned. Calling Wait from that callback blocks until ctx
// ends.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	idle := e.idle
	e.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Viewport returns the region of the current (or last) pass.
func (e *Engine) Viewport() Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.region
}

// Parallelism returns the degree of parallelism of the current pass.
func (e *Engine) Parallelism() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parallelism
}

// Depth returns the number of zooms that ZoomOut can undo.
func (e *Engine) Depth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// MaxIter returns the iteration budget.
func (e *Engine) MaxIter() int {
	return len(e.pal)
}

// Bounds returns the image rectangle.
func (e *Engine) Bounds() image.Rectangle {
	return image.Rect(0, 0, e.w, e.h)
}

// Close cancels the running pass and stops the workers. Further start
// requests fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	p := e.pool
	e.mu.Unlock()

	if p != nil {
		p.Close()
	}
}

package mandel

import (
	"image"
	"time"
)

// EngineOption configures an Engine during creation.
//
// Example:
//
//	e, err := mandel.NewEngine(400, 400, sink,
//		mandel.WithMaxIter(2048),
//		mandel.WithOnPassDone(func(s mandel.PassStats) { log.Println(s.Elapsed) }))
type EngineOption func(*engineOptions)

type engineOptions struct {
	palette    Palette
	onPassDone func(PassStats)
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		palette: NewPalette(DefaultMaxIter),
	}
}

// WithMaxIter sets the iteration budget, rebuilding the classic palette with
// that many entries. Values below 2 are ignored.
func WithMaxIter(n int) EngineOption {
	return func(o *engineOptions) {
		if n >= 2 {
			o.palette = NewPalette(n)
		}
	}
}

// WithPalette sets the palette; its length becomes the iteration budget.
// Palettes with fewer than 2 entries are ignored.
func WithPalette(p Palette) EngineOption {
	return func(o *engineOptions) {
		if len(p) >= 2 {
			o.palette = p
		}
	}
}

// WithOnPassDone registers a callback fired once per pass after all its
// tiles are done. The engine stays busy until the callback returns, so the
// callback may read the pixel sink without racing the next pass.
//
// The callback may query the engine (Busy, Viewport, Depth) but must not
// call Wait: Wait returns only after the callback has, so it would block
// until its context ends.
func WithOnPassDone(fn func(PassStats)) EngineOption {
	return func(o *engineOptions) {
		o.onPassDone = fn
	}
}

// PassStats describes a finished pass.
type PassStats struct {
	Region    Region
	Tiles     int
	Covered   image.Rectangle // union of tile rectangles; the rest is the truncated strip
	Elapsed   time.Duration
	Cancelled bool
}

package mandel

import (
	"errors"

	"github.com/marben/mandelzoom/internal/pool"
)

var (
	// ErrTooManyWorkers is returned when the requested parallelism exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("too many workers")

	// ErrEmptyGrid is returned when the tile grid would have no tiles or
	// zero-sized tiles.
	ErrEmptyGrid = errors.New("empty tile grid")

	// ErrInvalidRegion is returned for a region without positive width and height.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrDegenerateSelection is returned for a zoom selection with zero width or height.
	ErrDegenerateSelection = errors.New("degenerate selection")

	// ErrPassInProgress is returned when a pass is requested while the previous
	// one has not completed yet.
	ErrPassInProgress = errors.New("render pass in progress")

	// ErrNoHistory is returned by ZoomOut when there is no zoom to undo.
	ErrNoHistory = errors.New("no zoom history")

	// ErrClosed is returned by an Engine after Close.
	ErrClosed = pool.ErrClosed
)

package mandel

import (
	"fmt"
	"image"
	"math"

	"github.com/marben/mandelzoom/internal/pool"
)

// MaxWorkers caps the degree of parallelism of a pass.
const MaxWorkers = pool.MaxWorkers

// Partition splits a w×h image showing r into a side×side grid of tiles,
// side = floor(sqrt(parallelism)). Tiles are returned in row-major order.
//
// Tile extents use integer division: the w%side rightmost columns and the
// h%side bottom rows belong to no tile and stay unrendered.
func Partition(parallelism, w, h int, r Region) ([]Tile, error) {
	if parallelism > MaxWorkers {
		return nil, fmt.Errorf("parallelism %d > %d: %w", parallelism, MaxWorkers, ErrTooManyWorkers)
	}
	if !r.Valid() {
		return nil, fmt.Errorf("region %s: %w", r, ErrInvalidRegion)
	}

	side := 0
	if parallelism > 0 {
		side = int(math.Sqrt(float64(parallelism)))
	}
	if side <= 0 {
		return nil, fmt.Errorf("parallelism %d gives grid side %d: %w", parallelism, side, ErrEmptyGrid)
	}

	tw, th := w/side, h/side
	if tw <= 0 || th <= 0 {
		return nil, fmt.Errorf("image %dx%d too small for %dx%d grid: %w", w, h, side, side, ErrEmptyGrid)
	}

	m := NewMapper(r, w, h)
	tiles := make([]Tile, 0, side*side)
	for ty := range side {
		for tx := range side {
			rect := image.Rect(tx*tw, ty*th, (tx+1)*tw, (ty+1)*th)
			tiles = append(tiles, Tile{
				ID:   ty*side + tx,
				Rect: rect,
				Region: Region{
					Xmin: r.Xmin + float64(rect.Min.X)*m.StepX,
					Xmax: r.Xmin + float64(rect.Max.X)*m.StepX,
					Ymin: r.Ymin + float64(rect.Min.Y)*m.StepY,
					Ymax: r.Ymin + float64(rect.Max.Y)*m.StepY,
				},
				StepX: m.StepX,
				StepY: m.StepY,
			})
		}
	}
	return tiles, nil
}

// Coverage returns the bounding rectangle of all tiles.
func Coverage(tiles []Tile) image.Rectangle {
	var r image.Rectangle
	for _, t := range tiles {
		r = r.Union(t.Rect)
	}
	return r
}

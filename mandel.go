package mandel

import (
	"fmt"
	"image"
)

// Region within the Mandelbrot set.
// A Region is the viewport mapped onto the image; it is replaced as a whole
// on every zoom and never edited in place.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// NewRegion builds a Region from two opposite corners given in any order.
func NewRegion(a, b complex128) Region {
	return Region{
		Xmin: min(real(a), real(b)),
		Xmax: max(real(a), real(b)),
		Ymin: min(imag(a), imag(b)),
		Ymax: max(imag(a), imag(b)),
	}
}

func (r Region) Width() float64  { return r.Xmax - r.Xmin }
func (r Region) Height() float64 { return r.Ymax - r.Ymin }

// Valid reports whether the region has strictly positive width and height.
// NaN bounds are never valid.
func (r Region) Valid() bool {
	return r.Width() > 0 && r.Height() > 0
}

func (r Region) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", r.Xmin, r.Xmax, r.Ymin, r.Ymax)
}

// Tile is one worker's share of a render pass.
type Tile struct {
	ID     int             // worker identity, row-major index in the grid
	Rect   image.Rectangle // pixels in global image coordinates
	Region Region          // complex-plane counterpart of Rect
	StepX  float64         // per-pixel increment, same for every tile of a pass
	StepY  float64
}

// Point returns the complex-plane point of the global pixel (px, py).
// The origin is recovered from the tile's own offset so every tile of a pass
// maps pixels identically.
func (t Tile) Point(px, py int) complex128 {
	x := t.Region.Xmin + float64(px-t.Rect.Min.X)*t.StepX
	y := t.Region.Ymin + float64(py-t.Rect.Min.Y)*t.StepY
	return complex(x, y)
}

func (t Tile) String() string {
	return fmt.Sprintf("t=%d %s %s", t.ID, t.Rect, t.Region)
}

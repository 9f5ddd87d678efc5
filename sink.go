package mandel

import (
	"image"
	"image/color"
	"image/draw"
)

// PixelSink receives the rendered pixels. Workers write disjoint pixel sets,
// so implementations need no locking for concurrent SetPixel calls on
// different coordinates.
type PixelSink interface {
	SetPixel(x, y int, c color.RGBA)
}

// RGBASink writes pixels into an *image.RGBA.
type RGBASink struct {
	img *image.RGBA
}

func NewRGBASink(img *image.RGBA) *RGBASink {
	return &RGBASink{img: img}
}

// SetPixel implements PixelSink. Out-of-bounds writes are dropped by image.RGBA.
func (s *RGBASink) SetPixel(x, y int, c color.RGBA) {
	s.img.SetRGBA(x, y, c)
}

// Snapshot copies the backing image. Taken while a pass is running, the copy
// races with the workers.
func (s *RGBASink) Snapshot() *image.RGBA {
	dst := image.NewRGBA(s.img.Bounds())
	draw.Draw(dst, dst.Bounds(), s.img, s.img.Bounds().Min, draw.Src)
	return dst
}

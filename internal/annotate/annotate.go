// Package annotate post-processes rendered frames: resampling and a caption
// strip describing the viewport.
package annotate

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	mandel "github.com/marben/mandelzoom"
)

const (
	captionPad    = 4
	captionHeight = 13 + 2*captionPad // basicfont.Face7x13 line height plus padding
)

var (
	captionBg = color.RGBA{0, 0, 0, 180}
	captionFg = color.RGBA{255, 255, 255, 255}
)

// Scale resamples src by factor with Catmull-Rom. A factor of 1 returns a
// plain copy.
func Scale(src image.Image, factor float64) *image.RGBA {
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Caption draws text on a translucent strip along the bottom edge of img.
// Text wider than the image is shortened and ends in "...".
func Caption(img *image.RGBA, text string) {
	b := img.Bounds()
	text = Fit(text, b.Dx()-2*captionPad)
	strip := image.Rect(b.Min.X, max(b.Min.Y, b.Max.Y-captionHeight), b.Max.X, b.Max.Y)
	draw.Draw(img, strip, image.NewUniform(captionBg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(captionFg),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(strip.Min.X+captionPad, strip.Max.Y-captionPad-basicfont.Face7x13.Descent),
	}
	d.DrawString(text)
}

// TextWidth is the width in pixels of text set in the caption face.
func TextWidth(text string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(text).Ceil()
}

// Fit shortens text so it is at most width pixels wide in the caption face,
// marking the cut with "...". It returns "" if not even that fits.
func Fit(text string, width int) string {
	if TextWidth(text) <= width {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	for n := len(runes) - 1; n >= 0; n-- {
		if s := string(runes[:n]) + ellipsis; TextWidth(s) <= width {
			return s
		}
	}
	return ""
}

var printer = message.NewPrinter(language.English)

// Describe summarizes a region for captions and status lines, e.g.
// "[-1.5,0.5]x[-1,1] 1,024 iter 3.2x zoom".
func Describe(r mandel.Region, maxIter int, base mandel.Region) string {
	zoom := 1.0
	if r.Width() > 0 {
		zoom = base.Width() / r.Width()
	}
	return printer.Sprintf("%s %d iter %.4gx zoom", r, maxIter, zoom)
}

// Count formats n with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

package mandel

import (
	"fmt"
	"image/color"
	"math"
)

// DefaultMaxIter is the default palette length and iteration budget.
const DefaultMaxIter = 1024

// Palette maps an escape time to a color. Its length is the iteration budget.
type Palette []color.RGBA

// NewPalette builds the classic palette: green ramps with i, red with its
// complement, blue mixes both. Entry 0 is black.
func NewPalette(size int) Palette {
	p := make(Palette, size)
	for i := range p {
		g := uint8(i % 256)
		r := uint8((256 - i) % 256)
		b := uint8(int(r) * int(g) % 256)
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

// NewHSVPalette walks the hue wheel 50 entries per turn. Entry 0 is black.
func NewHSVPalette(size int) Palette {
	p := make(Palette, size)
	for i := range p {
		if i == 0 {
			p[i] = color.RGBA{A: 255}
			continue
		}
		p[i] = hsv(float64(i)*0.02, 1, 1)
	}
	return p
}

// PaletteByName resolves "classic" or "hsv".
func PaletteByName(name string, size int) (Palette, error) {
	switch name {
	case "", "classic":
		return NewPalette(size), nil
	case "hsv":
		return NewHSVPalette(size), nil
	}
	return nil, fmt.Errorf("unknown palette %q", name)
}

// Color returns the entry for escape time i. Out-of-range indexes get entry 0.
func (p Palette) Color(i int) color.RGBA {
	if i < 0 || i >= len(p) {
		i = 0
	}
	return p[i]
}

// Simple HSV → RGB
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

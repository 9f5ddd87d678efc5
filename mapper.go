package mandel

// Mapper converts between pixel and complex-plane coordinates for one
// Region mapped onto a w×h image.
type Mapper struct {
	Region Region
	W, H   int
	StepX  float64
	StepY  float64
}

// NewMapper derives the per-pixel step of r on a w×h image.
// w and h must be positive.
func NewMapper(r Region, w, h int) Mapper {
	return Mapper{
		Region: r,
		W:      w,
		H:      h,
		StepX:  r.Width() / float64(w),
		StepY:  r.Height() / float64(h),
	}
}

// ToComplex maps a pixel coordinate to the complex plane. Pixel row 0 is Ymin.
func (m Mapper) ToComplex(px, py float64) complex128 {
	return complex(m.Region.Xmin+px*m.StepX, m.Region.Ymin+py*m.StepY)
}

// ToPixel is the inverse of ToComplex.
func (m Mapper) ToPixel(c complex128) (px, py float64) {
	return (real(c) - m.Region.Xmin) / m.StepX, (imag(c) - m.Region.Ymin) / m.StepY
}

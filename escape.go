package mandel

// Escape returns the escape time of c: the iteration count at which the orbit
// of z ← z² + c, started at z = c, leaves the radius-2 disk. Counting starts
// at 1. Points that never escape within maxIter iterations, and those that
// escape exactly at maxIter, return 0, the same index as the darkest palette
// entry.
func Escape(c complex128, maxIter int) int {
	z := c
	n := 1
	for abs2(z) < 4 && n <= maxIter {
		z = z*z + c
		n++
	}
	if n < maxIter {
		return n
	}
	return 0
}

// abs2 is |z|², which spares the square root of cmplx.Abs.
func abs2(z complex128) float64 {
	r, i := real(z), imag(z)
	return r*r + i*i
}

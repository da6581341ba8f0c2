package smooth

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gaussian convolves vals with a normalised Gaussian kernel of the given
// standard deviation. The kernel is truncated at four standard deviations
// and the series is reflected at both ends, so the output has the same
// length as the input and a constant series passes through unchanged.
func Gaussian(vals []float64, sigma float64) []float64 {
	if len(vals) == 0 || sigma <= 0 {
		return append([]float64(nil), vals...)
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	n := len(vals)
	out := make([]float64, n)
	for i := range out {
		s := 0.0
		for j, w := range kernel {
			s += w * vals[reflect(i+j-radius, n)]
		}
		out[i] = s
	}
	return out
}

// reflect maps an out-of-range index back into [0, n) by mirroring across
// the array edges (..., 1, 0 | 0, 1, ..., n-1 | n-1, n-2, ...).
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

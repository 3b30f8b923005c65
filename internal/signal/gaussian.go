package signal

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTruncate is the number of standard deviations at which the Gaussian
// kernel is cut off (scipy.ndimage default)
const DefaultTruncate = 4.0

// GaussianKernel returns the normalised 1-D Gaussian kernel for sigma,
// spanning radius = int(truncate*sigma + 0.5) samples on each side.
func GaussianKernel(sigma, truncate float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// GaussianFilter1D smooths data with a Gaussian kernel over sample indices
// (scipy.ndimage.gaussian_filter1d compatible, mode="reflect"). The spacing of
// the underlying timestamps is deliberately ignored. A non-positive sigma
// returns a copy of data.
func GaussianFilter1D(data []float64, sigma float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, data)
		return out
	}

	kernel := GaussianKernel(sigma, DefaultTruncate)
	radius := len(kernel) / 2
	window := make([]float64, len(kernel))

	for i := 0; i < n; i++ {
		for k := range window {
			window[k] = data[reflectIndex(i+k-radius, n)]
		}
		out[i] = floats.Dot(kernel, window)
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0, n) by half-sample
// symmetric reflection: d c b a | a b c d | d c b a
func reflectIndex(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

package signal

// Gradient returns the derivative of f with respect to t using the actual
// sample spacing (numpy.gradient compatible with edge_order=1). Interior
// points use the second-order non-uniform central difference, the two end
// points use one-sided differences.
//
// Stitched timelines repeat a timestamp at every trial junction. Where one
// side of an interior point has zero spacing the one-sided difference on the
// other side is used, and a point with no usable spacing gets a zero slope.
func Gradient(f, t []float64) []float64 {
	n := len(f)
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	out[0] = slope(f[0], f[1], t[1]-t[0])
	out[n-1] = slope(f[n-2], f[n-1], t[n-1]-t[n-2])

	for i := 1; i < n-1; i++ {
		hs := t[i] - t[i-1]
		hd := t[i+1] - t[i]
		switch {
		case hs > 0 && hd > 0:
			out[i] = (hs*hs*f[i+1] + (hd*hd-hs*hs)*f[i] - hd*hd*f[i-1]) / (hs * hd * (hs + hd))
		case hd > 0:
			out[i] = slope(f[i], f[i+1], hd)
		case hs > 0:
			out[i] = slope(f[i-1], f[i], hs)
		}
	}
	return out
}

func slope(a, b, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return (b - a) / dt
}

// Package signal turns raw joystick angle traces into a smoothed speed signal.
package signal

import (
	"math"

	"github.com/chrissnell/eventtable/internal/types"
)

// DefaultSmoothness is the Gaussian sigma, in samples, applied to the rate signal
const DefaultSmoothness = 2.0

// Preprocessor computes the smoothed rate-of-change of |angle| over time
type Preprocessor struct {
	Smoothness float64
}

// NewPreprocessor returns a Preprocessor with the given smoothness
func NewPreprocessor(smoothness float64) *Preprocessor {
	return &Preprocessor{Smoothness: smoothness}
}

// Rate returns one smoothed speed value per sample of ts. Rotation direction is
// discarded: only how fast the stick moves matters.
func (p *Preprocessor) Rate(ts types.TimeSeries) (types.RateSeries, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}

	magnitude := make([]float64, ts.Len())
	for i, a := range ts.Angles {
		magnitude[i] = math.Abs(a)
	}

	return GaussianFilter1D(Gradient(magnitude, ts.Times), p.Smoothness), nil
}

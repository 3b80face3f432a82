package sampling

import (
	"fmt"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/density"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
)

// boxHalfWidthSD is how many standard deviations either side of the mean the
// sampling window spans before clamping to [0, 1].
const boxHalfWidthSD = 8

// BetaSampler draws values from a fixed Beta(a, b) distribution.
//
// The bounding box is tightened to mean ± 8 sd and capped at the density's
// value at the mean. That cap is only an upper bound for unimodal densities
// peaking near the mean; for a < 1 or b < 1 the density is U-shaped or
// unbounded and the samples are biased.
type BetaSampler struct {
	pdf      density.Density
	box      Box
	maxIters int
}

// BetaOption configures a [BetaSampler].
type BetaOption func(*BetaSampler)

// WithMaxIters overrides the rejection cap used for every draw.
func WithMaxIters(n int) BetaOption {
	return func(s *BetaSampler) {
		s.maxIters = n
	}
}

// NewBetaSampler returns a sampler for Beta(a, b). The density comes from
// [density.Select], so large shape parameters use the normal approximation.
//
// The box spans mean ± 8 sd clamped to [0, 1] and its height is the density at
// the mean. That height bounds the density only when it peaks at the mean; for
// a < 1 or b < 1 the density is U-shaped or unbounded and the samples are biased.
func NewBetaSampler(a, b float64, opts ...BetaOption) BetaSampler {
	pdf := density.Select(a, b)

	distMean := density.MeanBeta(a, b)
	distSD := density.SDBeta(a, b)

	sampler := BetaSampler{
		pdf: pdf,
		box: Box{
			XMin: max(distMean-boxHalfWidthSD*distSD, 0),
			XMax: min(distMean+boxHalfWidthSD*distSD, 1),
			YMax: pdf.Evaluate(distMean),
		},
		maxIters: DefaultMaxIters,
	}

	for _, opt := range opts {
		opt(&sampler)
	}

	return sampler
}

// Density returns the density the sampler draws from.
func (s BetaSampler) Density() density.Density {
	return s.pdf
}

// Box returns the bounding box used for rejection sampling.
func (s BetaSampler) Box() Box {
	return s.box
}

// Sample draws one value. Every call is an independent trial.
func (s BetaSampler) Sample(src rng.Source) (float64, error) {
	return Rejection(src, s.pdf, s.box, s.maxIters)
}

// Draw returns n independent samples, stopping at the first exhausted draw.
// The values drawn before the failure are returned with the error.
func (s BetaSampler) Draw(src rng.Source, n int) ([]float64, error) {
	var (
		drawn int
		err   error
	)

	values := stats.CollectN(n, func() float64 {
		if err != nil {
			return 0
		}

		v, sampleErr := s.Sample(src)
		if sampleErr != nil {
			err = fmt.Errorf("draw %d of %d: %w", drawn+1, n, sampleErr)

			return 0
		}

		drawn++

		return v
	})

	return values[:drawn], err
}

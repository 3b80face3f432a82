// Package improvement estimates how likely one Beta-distributed rate is to
// exceed another, and by how much, for Bayesian A/B test summaries.
package improvement

import (
	"fmt"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/density"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

// DefaultSampleCount is the number of paired draws used when none is given.
const DefaultSampleCount = 100000

// Params holds the shape parameters of the two compared distributions:
// X1 ~ Beta(A1, B1) and X2 ~ Beta(A2, B2).
type Params struct {
	A1 float64 `json:"a1" yaml:"a1"`
	B1 float64 `json:"b1" yaml:"b1"`
	A2 float64 `json:"a2" yaml:"a2"`
	B2 float64 `json:"b2" yaml:"b2"`
}

// Kinds reports which density variant each distribution is sampled from.
func (p Params) Kinds() [2]density.Kind {
	return [2]density.Kind{density.Select(p.A1, p.B1).Kind(), density.Select(p.A2, p.B2).Kind()}
}

// Summary is the Monte Carlo summary of X1 against X2.
type Summary struct {
	// Probability is the fraction of paired draws with X1 > X2.
	Probability float64 `json:"probability" yaml:"probability"`

	// Mean is the mean relative lift X1/X2 - 1.
	Mean float64 `json:"mean" yaml:"mean"`

	// SD is the population standard deviation of the relative lift.
	SD float64 `json:"sd" yaml:"sd"`
}

// Improvement draws sampleCount values from Beta(a1, b1) and Beta(a2, b2),
// pairs them by draw index and summarizes the relative difference.
// A non-positive sampleCount uses [DefaultSampleCount].
//
// A draw of exactly zero from the second distribution makes the lift
// infinite, which propagates into Mean and SD. Sampler exhaustion is returned
// as an error wrapping [sampling.ErrExhausted].
func Improvement(src rng.Source, a1, b1, a2, b2 float64, sampleCount int) (Summary, error) {
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}

	samples1, err := sampling.NewBetaSampler(a1, b1).Draw(src, sampleCount)
	if err != nil {
		return Summary{}, fmt.Errorf("sample first distribution: %w", err)
	}

	samples2, err := sampling.NewBetaSampler(a2, b2).Draw(src, sampleCount)
	if err != nil {
		return Summary{}, fmt.Errorf("sample second distribution: %w", err)
	}

	summary, _ := summarize(samples1, samples2)

	return summary, nil
}

// summarize pairs the samples by index and returns the summary together with
// the relative lift of each pair.
func summarize(samples1, samples2 []float64) (Summary, []float64) {
	count := min(len(samples1), len(samples2))
	lifts := make([]float64, count)
	improved := 0

	for i := range count {
		s1, s2 := samples1[i], samples2[i]
		if s1 > s2 {
			improved++
		}

		lifts[i] = s1/s2 - 1
	}

	mean, sd := stats.MeanStdDev(lifts)

	return Summary{
		Probability: float64(improved) / float64(count),
		Mean:        mean,
		SD:          sd,
	}, lifts
}

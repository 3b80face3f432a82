package improvement_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/density"
	"github.com/Sumatoshi-tech/probably/pkg/improvement"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

var abParams = improvement.Params{A1: 10, B1: 23, A2: 8, B2: 34}

func TestImprovement_KnownParameters(t *testing.T) {
	t.Parallel()

	summary, err := improvement.Improvement(rng.New(11), 10, 23, 8, 34, 20000)
	require.NoError(t, err)

	exact, err := improvement.ExactProbability(abParams)
	require.NoError(t, err)

	assert.InDelta(t, exact, summary.Probability, 0.015)
	assert.Greater(t, summary.Probability, 0.8)
	assert.Less(t, summary.Probability, 0.95)
	assert.Greater(t, summary.Mean, 0.0)
	assert.Greater(t, summary.SD, 0.0)
}

func TestImprovement_IdenticalDistributions(t *testing.T) {
	t.Parallel()

	summary, err := improvement.Improvement(rng.New(12), 20, 20, 20, 20, 20000)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, summary.Probability, 0.02)
}

func TestImprovement_PropagatesExhaustion(t *testing.T) {
	t.Parallel()

	// The standard deviation underflows to zero, leaving a degenerate box whose
	// density cap is NaN, so no candidate is ever accepted.
	_, err := improvement.Improvement(rng.New(13), 1, 1e308, 10, 23, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, sampling.ErrExhausted)
}

func TestParams_Kinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [2]density.Kind{density.KindBeta, density.KindBeta}, abParams.Kinds())
	assert.Equal(t,
		[2]density.Kind{density.KindNormal, density.KindBeta},
		improvement.Params{A1: 600, B1: 400, A2: 8, B2: 34}.Kinds(),
	)
}

func TestExactProbability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   improvement.Params
		expected float64
		delta    float64
	}{
		{name: "uniform_priors", params: improvement.Params{A1: 1, B1: 1, A2: 1, B2: 1}, expected: 0.5, delta: 1e-12},
		{name: "symmetric", params: improvement.Params{A1: 7, B1: 3, A2: 7, B2: 3}, expected: 0.5, delta: 1e-9},
		{name: "first_dominates", params: improvement.Params{A1: 2, B1: 1, A2: 1, B2: 1}, expected: 2.0 / 3, delta: 1e-12},
		{name: "ab_test", params: abParams, expected: 0.87, delta: 0.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := improvement.ExactProbability(tt.params)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestExactProbability_NonIntegerShape(t *testing.T) {
	t.Parallel()

	_, err := improvement.ExactProbability(improvement.Params{A1: 2.5, B1: 1, A2: 1, B2: 1})
	require.ErrorIs(t, err, improvement.ErrNonIntegerShape)
}

func TestExactProbability_ShapeTooLarge(t *testing.T) {
	t.Parallel()

	_, err := improvement.ExactProbability(improvement.Params{A1: 1e12, B1: 1, A2: 5, B2: 5})
	require.ErrorIs(t, err, improvement.ErrShapeTooLarge)
}

func TestEstimator_ReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	run := func() improvement.Report {
		est := improvement.NewEstimator(
			improvement.WithSampleCount(5000),
			improvement.WithWorkers(4),
			improvement.WithSeed(42),
		)

		report, err := est.Estimate(context.Background(), abParams)
		require.NoError(t, err)

		return report
	}

	first, second := run(), run()

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Lifts, second.Lifts)
	assert.Equal(t, uint64(42), first.Seed)
	assert.Equal(t, 4, first.Workers)
	assert.Len(t, first.Lifts, 5000)
}

func TestEstimator_SummaryMatchesLifts(t *testing.T) {
	t.Parallel()

	est := improvement.NewEstimator(improvement.WithSampleCount(3001), improvement.WithWorkers(7), improvement.WithSeed(1))

	report, err := est.Estimate(context.Background(), abParams)
	require.NoError(t, err)

	require.Len(t, report.Lifts, 3001)
	assert.InDelta(t, stats.Mean(report.Lifts), report.Summary.Mean, 1e-12)
	assert.InDelta(t, stats.StdDev(report.Lifts), report.Summary.SD, 1e-12)
	assert.Equal(t, 3001, report.SampleCount)
}

func TestEstimator_AgreesWithClosedForm(t *testing.T) {
	t.Parallel()

	est := improvement.NewEstimator(
		improvement.WithSampleCount(100000),
		improvement.WithWorkers(4),
		improvement.WithSeed(7),
		improvement.WithExact(true),
	)

	report, err := est.Estimate(context.Background(), abParams)
	require.NoError(t, err)
	require.NotNil(t, report.Exact)

	assert.InDelta(t, *report.Exact, report.Summary.Probability, 0.01)
}

func TestEstimator_ExactSkippedForFractionalShape(t *testing.T) {
	t.Parallel()

	est := improvement.NewEstimator(improvement.WithSampleCount(100), improvement.WithSeed(3), improvement.WithExact(true))

	report, err := est.Estimate(context.Background(), improvement.Params{A1: 10.5, B1: 23, A2: 8, B2: 34})
	require.NoError(t, err)
	assert.Nil(t, report.Exact)
}

func TestEstimator_ExactSkippedForLargeShape(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	est := improvement.NewEstimator(improvement.WithSampleCount(100), improvement.WithSeed(3), improvement.WithExact(true))

	report, err := est.Estimate(ctx, improvement.Params{A1: 1e12, B1: 1, A2: 5, B2: 5})
	require.NoError(t, err)
	assert.Nil(t, report.Exact)
	assert.Less(t, report.Elapsed, time.Second)
}

func TestEstimator_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := improvement.NewEstimator(improvement.WithSampleCount(1000), improvement.WithWorkers(2)).Estimate(ctx, abParams)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEstimator_ConvergesWithMoreSamples(t *testing.T) {
	t.Parallel()

	spread := func(samples int) float64 {
		estimates := make([]float64, 0, 8)

		for seed := range uint64(8) {
			est := improvement.NewEstimator(improvement.WithSampleCount(samples), improvement.WithSeed(seed), improvement.WithWorkers(2))

			report, err := est.Estimate(context.Background(), abParams)
			require.NoError(t, err)

			estimates = append(estimates, report.Summary.Probability)
		}

		return stats.StdDev(estimates)
	}

	small, large := spread(500), spread(50000)

	assert.Less(t, large, small)
	assert.False(t, math.IsNaN(large))
}

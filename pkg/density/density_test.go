package density_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Sumatoshi-tech/probably/pkg/density"
)

func TestEulerBeta_IntegerArguments(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5500934396325411e-9, density.EulerBeta(10, 23), 1e-20)
	assert.InDelta(t, 1.0, density.EulerBeta(1, 1), 1e-15)
	assert.InDelta(t, 1.0/6, density.EulerBeta(2, 2), 1e-15)
}

func TestMeanBeta(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10.0/33, density.MeanBeta(10, 23), 0)
}

func TestSDBeta(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.07881529757, density.SDBeta(10, 23), 1e-10)
}

func TestBeta_Evaluate(t *testing.T) {
	t.Parallel()

	pdf := density.NewBeta(10, 23)

	assert.InDelta(t, 0.0, pdf.Evaluate(0), 0)
	assert.InDelta(t, 0.0, pdf.Evaluate(1), 0)
	assert.InDelta(t, 0.300409, pdf.Evaluate(0.5), 1e-5)
	assert.InDelta(t, 0.0, pdf.Evaluate(-0.1), 0)
	assert.InDelta(t, 0.0, pdf.Evaluate(1.1), 0)
}

func TestBeta_MatchesReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b float64
	}{
		{name: "skewed", a: 10, b: 23},
		{name: "symmetric", a: 5, b: 5},
		{name: "narrow", a: 80, b: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pdf := density.NewBeta(tt.a, tt.b)
			ref := distuv.Beta{Alpha: tt.a, Beta: tt.b}

			for _, x := range []float64{0.05, 0.2, 0.3, 0.5, 0.8} {
				want := ref.Prob(x)
				assert.InDelta(t, want, pdf.Evaluate(x), 1e-9*math.Max(1, want), "x=%v", x)
				assert.InDelta(t, ref.CDF(x), pdf.CDF(x), 1e-9, "x=%v", x)
			}
		})
	}
}

func TestBeta_Idempotent(t *testing.T) {
	t.Parallel()

	first, second := density.NewBeta(10, 23), density.NewBeta(10, 23)

	for _, x := range []float64{0, 0.1, 0.303, 0.7, 1} {
		assert.InDelta(t, first.Evaluate(x), second.Evaluate(x), 0)
		assert.InDelta(t, first.Evaluate(x), first.Evaluate(x), 0)
	}
}

func TestNormal_Evaluate(t *testing.T) {
	t.Parallel()

	pdf := density.NewNormal(5, 2)
	ref := distuv.Normal{Mu: 5, Sigma: 2}

	for _, x := range []float64{-1, 0, 3.5, 5, 9} {
		assert.InDelta(t, ref.Prob(x), pdf.Evaluate(x), 1e-12, "x=%v", x)
		assert.InDelta(t, ref.CDF(x), pdf.CDF(x), 1e-12, "x=%v", x)
	}

	assert.InDelta(t, 1/(2*math.Sqrt(2*math.Pi)), pdf.Evaluate(5), 1e-15)
}

func TestSelect_BelowThreshold(t *testing.T) {
	t.Parallel()

	pdf := density.Select(10, 23)
	require.Equal(t, density.KindBeta, pdf.Kind())

	beta, ok := pdf.(density.Beta)
	require.True(t, ok)

	a, b := beta.Params()
	assert.InDelta(t, 10.0, a, 0)
	assert.InDelta(t, 23.0, b, 0)
	assert.InDelta(t, density.NewBeta(10, 23).Evaluate(0.5), pdf.Evaluate(0.5), 0)
}

func TestSelect_AtThreshold(t *testing.T) {
	t.Parallel()

	pdf := density.Select(400, 600)
	require.Equal(t, density.KindNormal, pdf.Kind())

	normal, ok := pdf.(density.Normal)
	require.True(t, ok)

	mean, sd := normal.Params()
	assert.InDelta(t, density.MeanBeta(400, 600), mean, 0)
	assert.InDelta(t, density.SDBeta(400, 600), sd, 0)
}

func TestSelect_JustBelowThreshold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, density.KindBeta, density.Select(400, 599).Kind())
}

// Package density builds the probability density functions used by the samplers:
// the exact Beta density and its normal approximation for large shape parameters.
package density

import "math"

// NormalApproxThreshold is the value of a+b at and above which [Select] returns
// the normal approximation instead of the exact Beta density. It is a fixed
// constant: the product form of [EulerBeta] multiplies a ratios, each below one,
// and loses precision as the shape parameters grow while Beta(a, b) itself
// approaches a Gaussian.
const NormalApproxThreshold = 1000

// Kind identifies a density variant.
type Kind string

// Density variants.
const (
	KindBeta   Kind = "beta"
	KindNormal Kind = "normal"
)

// Density is a pure function from a real number to a non-negative density value.
// Implementations are immutable and safe for concurrent use.
type Density interface {
	// Evaluate returns the density at x.
	Evaluate(x float64) float64

	// CDF returns the cumulative probability at x.
	CDF(x float64) float64

	// Kind reports which variant this is.
	Kind() Kind
}

// Select returns the exact Beta density when a+b is below
// [NormalApproxThreshold], and otherwise a normal density with the same
// mean and standard deviation as Beta(a, b).
func Select(a, b float64) Density {
	if a+b < NormalApproxThreshold {
		return NewBeta(a, b)
	}

	return NewNormal(MeanBeta(a, b), SDBeta(a, b))
}

// MeanBeta returns the mean of the Beta(a, b) distribution.
func MeanBeta(a, b float64) float64 {
	return a / (a + b)
}

// SDBeta returns the standard deviation of the Beta(a, b) distribution.
func SDBeta(a, b float64) float64 {
	mean := MeanBeta(a, b)

	return math.Sqrt(mean * (1 - mean) / (a + b + 1))
}

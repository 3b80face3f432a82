package density

import (
	"math"

	"github.com/aclements/go-moremath/mathx"
)

// EulerBeta returns the Euler beta function B(a, b) computed by the product
//
//	∏_{i=0}^{a-1} max(i, 1) / (b + i)
//
// The identity only holds for non-negative integer a. A fractional a runs the
// loop ceil(a) times and yields a value that is not B(a, b); callers needing
// fractional shapes must not rely on it.
func EulerBeta(a, b float64) float64 {
	total := 1.0

	for i := 0.0; i < a; i++ {
		total *= max(i, 1) / (b + i)
	}

	return total
}

// Beta is the density of the Beta(a, b) distribution on [0, 1].
// The normalising constant is computed once by [NewBeta].
type Beta struct {
	a, b  float64
	denom float64
}

// NewBeta returns the Beta(a, b) density. See [EulerBeta] for the restriction
// on a.
func NewBeta(a, b float64) Beta {
	return Beta{a: a, b: b, denom: EulerBeta(a, b)}
}

// Params returns the shape parameters.
func (d Beta) Params() (a, b float64) {
	return d.a, d.b
}

// Evaluate returns x^(a-1) (1-x)^(b-1) / B(a, b). Points outside [0, 1] have
// zero density; for a, b > 1 the endpoints evaluate to 0.
func (d Beta) Evaluate(x float64) float64 {
	if x < 0 || x > 1 {
		return 0
	}

	return math.Pow(x, d.a-1) * math.Pow(1-x, d.b-1) / d.denom
}

// CDF returns the regularized incomplete beta function I_x(a, b).
func (d Beta) CDF(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}

	return mathx.BetaInc(x, d.a, d.b)
}

// Kind returns [KindBeta].
func (Beta) Kind() Kind {
	return KindBeta
}

package improvement

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

// maxExactShape bounds a1 for the closed form; the sum has a1 terms.
const maxExactShape = 1e6

var (
	// ErrNonIntegerShape is returned by [ExactProbability] when A1 is not a
	// positive integer.
	ErrNonIntegerShape = errors.New("closed form requires a positive integer a1")

	// ErrShapeTooLarge is returned by [ExactProbability] when A1 exceeds the
	// number of terms it is willing to sum.
	ErrShapeTooLarge = errors.New("a1 too large for closed form")
)

// ExactProbability returns P(X1 > X2) for X1 ~ Beta(a1, b1) and
// X2 ~ Beta(a2, b2) in closed form:
//
//	Σ_{i=0}^{a1-1} B(a2+i, b1+b2) / ((b1+i) B(1+i, b1) B(a2, b2))
//
// evaluated in log space. The sum only exists for integer a1, and a1 above
// 1e6 is rejected with [ErrShapeTooLarge].
func ExactProbability(p Params) (float64, error) {
	if p.A1 < 1 || p.A1 != math.Trunc(p.A1) {
		return 0, fmt.Errorf("%w: %v", ErrNonIntegerShape, p.A1)
	}

	if p.A1 > maxExactShape {
		return 0, fmt.Errorf("%w: %v > %v", ErrShapeTooLarge, p.A1, maxExactShape)
	}

	base := mathext.Lbeta(p.A2, p.B2)

	var total float64

	for i := 0.0; i < p.A1; i++ {
		total += math.Exp(mathext.Lbeta(p.A2+i, p.B1+p.B2) - math.Log(p.B1+i) - mathext.Lbeta(1+i, p.B1) - base)
	}

	return total, nil
}

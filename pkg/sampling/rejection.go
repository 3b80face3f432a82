// Package sampling draws values from bounded densities by rejection sampling
// and builds ready-to-use samplers for Beta distributions.
package sampling

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/probably/pkg/density"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
)

// DefaultMaxIters is the number of rejected candidates after which
// [Rejection] gives up.
const DefaultMaxIters = 10000

// ErrExhausted is returned when no candidate was accepted within the
// iteration cap. It usually means the bounding box is far too loose for the
// density, or that the density exceeds YMax somewhere.
var ErrExhausted = errors.New("rejection sampling exhausted")

// Box is the rectangle [XMin, XMax] × [0, YMax] that must contain the graph
// of the sampled density. A YMax below the density's true maximum silently
// biases the output.
type Box struct {
	XMin float64 `json:"x_min" yaml:"x_min"`
	XMax float64 `json:"x_max" yaml:"x_max"`
	YMax float64 `json:"y_max" yaml:"y_max"`
}

// Rejection draws one value from f restricted to box. Each attempt draws
// x ~ U[XMin, XMax] and y ~ U[0, YMax] and accepts x when y <= f(x).
// A non-positive maxIters uses [DefaultMaxIters].
func Rejection(src rng.Source, f density.Density, box Box, maxIters int) (float64, error) {
	if maxIters <= 0 {
		maxIters = DefaultMaxIters
	}

	for range maxIters {
		x := rng.Uniform(src, box.XMin, box.XMax)
		y := rng.Uniform(src, 0, box.YMax)

		if y <= f.Evaluate(x) {
			return x, nil
		}
	}

	return 0, fmt.Errorf("%w after %d iterations", ErrExhausted, maxIters)
}

package density

import "math"

// Normal is the density of the normal distribution N(mean, sd²).
type Normal struct {
	mean, sd float64
}

// NewNormal returns the normal density with the given mean and standard deviation.
func NewNormal(mean, sd float64) Normal {
	return Normal{mean: mean, sd: sd}
}

// Params returns the mean and standard deviation.
func (d Normal) Params() (mean, sd float64) {
	return d.mean, d.sd
}

// Evaluate returns exp(-(x-mean)² / 2sd²) / (sd √(2π)).
func (d Normal) Evaluate(x float64) float64 {
	diff := x - d.mean

	return math.Exp(-(diff*diff)/(2*d.sd*d.sd)) / (d.sd * math.Sqrt(2*math.Pi))
}

// CDF returns the cumulative probability at x.
func (d Normal) CDF(x float64) float64 {
	return 0.5 * math.Erfc(-(x-d.mean)/(d.sd*math.Sqrt2))
}

// Kind returns [KindNormal].
func (Normal) Kind() Kind {
	return KindNormal
}

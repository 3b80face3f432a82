// Package stats provides core statistical functions for numerical analysis.
// All variance and standard deviation calculations use the population form (÷n, not ÷(n−1)).
// Functions that have no meaningful value for an empty slice return NaN so that
// composed computations degrade to NaN instead of failing.
package stats

import (
	"cmp"
	"math"
	"slices"
)

// Number is the set of numeric element types accepted by the generic helpers.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum returns the sum of all elements in values.
// Returns the zero value of T for an empty slice.
func Sum[T Number](values []T) T {
	var result T

	for _, v := range values {
		result += v
	}

	return result
}

// Mean returns the arithmetic mean of values.
// Returns NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return Sum(values) / float64(len(values))
}

// Median returns the middle value of an ascending-sorted slice, or the
// average of the two middle values when the length is even.
// The input is not sorted; callers pass sorted data. Returns NaN for an empty slice.
func Median(sorted []float64) float64 {
	count := len(sorted)
	if count == 0 {
		return math.NaN()
	}

	mid := count / 2
	if count%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}

// Variance returns the population variance of values.
// Returns NaN for an empty slice.
func Variance(values []float64) float64 {
	count := len(values)
	if count == 0 {
		return math.NaN()
	}

	mean := Mean(values)

	var sumSq float64

	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}

	return sumSq / float64(count)
}

// StdDev returns the population standard deviation of values.
// Returns NaN for an empty slice.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// MeanStdDev returns the arithmetic mean and population standard deviation.
// Returns (NaN, NaN) for an empty slice.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}

	return Mean(values), StdDev(values)
}

// Well-known percentile thresholds.
const (
	PercentileP05    = 0.05
	PercentileMedian = 0.5
	PercentileP95    = 0.95
)

// Percentile returns the p-th percentile of values using linear interpolation.
// p must be in [0, 1]. The input slice is not modified (a copy is sorted internally).
// Returns NaN for an empty slice.
func Percentile(values []float64, p float64) float64 {
	count := len(values)
	if count == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	idx := Clamp(p, 0, 1) * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Clamp restricts val to the range [lo, hi].
func Clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}

// Min returns the smallest element in values.
// Returns NaN for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	result := values[0]

	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}

	return result
}

// Max returns the largest element in values.
// Returns NaN for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	result := values[0]

	for _, v := range values[1:] {
		if v > result {
			result = v
		}
	}

	return result
}

package stats

import "math"

// Range returns the inclusive arithmetic progression start, start+step, ...
// up to and including the last term that does not pass stop.
// A zero step is treated as 1. The result is empty when the sign of step does
// not match the direction from start to stop, or when any argument is not finite.
func Range(start, stop, step float64) []float64 {
	if step == 0 {
		step = 1
	}

	if !isFinite(start) || !isFinite(stop) || !isFinite(step) {
		return nil
	}

	if (step > 0 && start > stop) || (step < 0 && start < stop) {
		return []float64{}
	}

	count := int(math.Floor((stop-start)/step)) + 1
	seq := make([]float64, 0, count)

	// Multiplying instead of accumulating keeps fractional steps from drifting.
	for i := range count {
		seq = append(seq, start+float64(i)*step)
	}

	return seq
}

// CollectN calls f n times and returns its results in call order.
// A non-positive n yields an empty slice.
func CollectN[T any](n int, f func() T) []T {
	values := make([]T, 0, max(n, 0))

	for range n {
		values = append(values, f())
	}

	return values
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

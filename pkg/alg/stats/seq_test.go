package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		start, stop, step float64
		expected          []float64
	}{
		{name: "consecutive", start: 1, stop: 5, step: 1, expected: []float64{1, 2, 3, 4, 5}},
		{name: "reversed_endpoints", start: 10, stop: 1, step: 1, expected: []float64{}},
		{name: "step_two", start: 1, stop: 10, step: 2, expected: []float64{1, 3, 5, 7, 9}},
		{name: "negative_step", start: 10, stop: 0, step: -3, expected: []float64{10, 7, 4, 1}},
		{name: "zero_step_is_one", start: 1, stop: 3, step: 0, expected: []float64{1, 2, 3}},
		{name: "negative_step_wrong_direction", start: 0, stop: 10, step: -1, expected: []float64{}},
		{name: "single_point", start: 4, stop: 4, step: 1, expected: []float64{4}},
		{name: "fractional_step", start: 0, stop: 1, step: 0.25, expected: []float64{0, 0.25, 0.5, 0.75, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Range(tt.start, tt.stop, tt.step)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("infinite_stop_is_empty", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, Range(0, math.Inf(1), 1))
	})
}

func TestCollectN(t *testing.T) {
	t.Parallel()

	t.Run("call_order", func(t *testing.T) {
		t.Parallel()

		i := 1
		got := CollectN(8, func() int {
			i *= 2

			return i
		})

		assert.Equal(t, []int{2, 4, 8, 16, 32, 64, 128, 256}, got)
	})

	t.Run("non_positive_count", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got := CollectN(-3, func() float64 {
			calls++

			return 1
		})

		assert.Empty(t, got)
		assert.Zero(t, calls)
	})
}

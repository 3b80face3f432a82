package report

import (
	"slices"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
)

// Description summarizes a numeric sequence.
type Description struct {
	Count    int    `json:"count"    yaml:"count"`
	Sum      Number `json:"sum"      yaml:"sum"`
	Mean     Number `json:"mean"     yaml:"mean"`
	Median   Number `json:"median"   yaml:"median"`
	Variance Number `json:"variance" yaml:"variance"`
	SD       Number `json:"sd"       yaml:"sd"`
	Min      Number `json:"min"      yaml:"min"`
	Max      Number `json:"max"      yaml:"max"`
}

// Describe computes the descriptive statistics of values. The median is taken
// over a sorted copy; values itself is not modified.
func Describe(values []float64) Description {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Description{
		Count:    len(values),
		Sum:      Number(stats.Sum(values)),
		Mean:     Number(stats.Mean(values)),
		Median:   Number(stats.Median(sorted)),
		Variance: Number(stats.Variance(values)),
		SD:       Number(stats.StdDev(values)),
		Min:      Number(stats.Min(values)),
		Max:      Number(stats.Max(values)),
	}
}

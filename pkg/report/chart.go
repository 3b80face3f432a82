package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
)

const (
	histogramBins   = 50
	histogramLowP   = 0.005
	histogramHighP  = 0.995
	chartHeight     = "500px"
	barColor        = "#5470c6"
	xAxisRotate     = 45
	binLabelDigits  = 1
	percentMultiple = 100
)

// Histogram is a binned count of values.
type Histogram struct {
	// Edges has len(Counts)+1 entries; bin i covers [Edges[i], Edges[i+1]).
	Edges  []float64
	Counts []int
}

// NewHistogram bins the finite values into bins equal-width bins between the
// 0.5th and 99.5th percentiles. Values outside that range land in the edge bins.
func NewHistogram(values []float64, bins int) Histogram {
	finite := FiniteValues(values)
	if len(finite) == 0 || bins < 1 {
		return Histogram{}
	}

	lo := stats.Percentile(finite, histogramLowP)
	hi := stats.Percentile(finite, histogramHighP)

	if hi <= lo {
		return Histogram{Edges: []float64{lo, lo}, Counts: []int{len(finite)}}
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)

	for i := range edges {
		edges[i] = lo + float64(i)*width
	}

	counts := make([]int, bins)

	for _, v := range finite {
		idx := int(math.Floor((v - lo) / width))
		counts[min(max(idx, 0), bins-1)]++
	}

	return Histogram{Edges: edges, Counts: counts}
}

// BuildLiftChart creates a bar chart of the lift distribution of view.
func BuildLiftChart(lifts []float64, view Improvement) *charts.Bar {
	hist := NewHistogram(lifts, histogramBins)

	labels := make([]string, len(hist.Counts))
	data := make([]opts.BarData, len(hist.Counts))

	for i, c := range hist.Counts {
		labels[i] = strconv.FormatFloat(hist.Edges[i]*percentMultiple, 'f', binLabelDigits, 64) + "%"
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Lift distribution",
			Width:     "100%",
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Relative lift of A over B",
			Subtitle: fmt.Sprintf("P(A > B) = %s, mean lift %s, %d samples",
				percent(view.Probability), percent(view.Mean), view.SampleCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Lift",
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Draws"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("Draws", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: barColor}))

	return bar
}

// WriteLiftChart renders the lift histogram as a standalone HTML page.
func WriteLiftChart(w io.Writer, lifts []float64, view Improvement) error {
	err := BuildLiftChart(lifts, view).Render(w)
	if err != nil {
		return fmt.Errorf("render lift chart: %w", err)
	}

	return nil
}

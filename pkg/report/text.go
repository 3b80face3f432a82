package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/probably/pkg/density"
)

// Verdict thresholds on the probability of improvement.
const (
	verdictConfident = 0.95
	verdictLikely    = 0.5
	verdictWorse     = 0.05
)

// Verdict returns a short human reading of a probability of improvement.
func Verdict(probability float64) string {
	switch {
	case probability >= verdictConfident:
		return "A beats B"
	case probability <= verdictWorse:
		return "B beats A"
	case probability >= verdictLikely:
		return "A leads, not conclusive"
	default:
		return "B leads, not conclusive"
	}
}

func verdictColor(probability float64) *color.Color {
	switch {
	case probability >= verdictConfident:
		return color.New(color.FgGreen, color.Bold)
	case probability <= verdictWorse:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func percent(v Number) string {
	return strconv.FormatFloat(float64(v)*100, 'f', 2, 64) + "%"
}

func number(v Number) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 64)
}

// WriteImprovementText renders an improvement view as a table followed by a
// colored verdict line.
func WriteImprovementText(w io.Writer, view Improvement) {
	tbl := newTable(w)
	tbl.SetTitle(fmt.Sprintf("A ~ Beta(%g, %g) vs B ~ Beta(%g, %g)",
		view.Params.A1, view.Params.B1, view.Params.A2, view.Params.B2))
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"P(A > B)", percent(view.Probability)},
		{"Mean lift", percent(view.Mean)},
		{"Lift SD", percent(view.SD)},
		{"Lift 5th pct", percent(view.LiftP05)},
		{"Lift median", percent(view.LiftMedian)},
		{"Lift 95th pct", percent(view.LiftP95)},
	})

	if view.Exact != nil {
		tbl.AppendRow(table.Row{"P(A > B), closed form", percent(Number(*view.Exact))})
	}

	tbl.AppendSeparator()
	tbl.AppendRow(table.Row{"Samples", humanize.Comma(int64(view.SampleCount))})
	tbl.AppendRow(table.Row{"Workers", view.Workers})
	tbl.AppendRow(table.Row{"Seed", view.Seed})
	tbl.AppendRow(table.Row{"Elapsed", view.Elapsed})

	if view.NonFinite > 0 {
		tbl.AppendFooter(table.Row{"Non-finite lifts", humanize.Comma(int64(view.NonFinite))})
	}

	tbl.Render()

	probability := float64(view.Probability)
	verdictColor(probability).Fprintf(w, "%s\n", Verdict(probability))
}

// WriteDescriptionText renders descriptive statistics as a table.
func WriteDescriptionText(w io.Writer, desc Description) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Statistic", "Value"})
	tbl.AppendRows([]table.Row{
		{"count", humanize.Comma(int64(desc.Count))},
		{"sum", number(desc.Sum)},
		{"mean", number(desc.Mean)},
		{"median", number(desc.Median)},
		{"variance", number(desc.Variance)},
		{"sd", number(desc.SD)},
		{"min", number(desc.Min)},
		{"max", number(desc.Max)},
	})
	tbl.Render()
}

// DensityPoint is one evaluated point of a density.
type DensityPoint struct {
	X       Number `json:"x"       yaml:"x"`
	Density Number `json:"density" yaml:"density"`
	CDF     Number `json:"cdf"     yaml:"cdf"`
}

// DensityTable is the evaluation of a selected density at several points.
type DensityTable struct {
	Kind   density.Kind   `json:"kind"   yaml:"kind"`
	A      float64        `json:"a"      yaml:"a"`
	B      float64        `json:"b"      yaml:"b"`
	Mean   Number         `json:"mean"   yaml:"mean"`
	SD     Number         `json:"sd"     yaml:"sd"`
	Points []DensityPoint `json:"points" yaml:"points"`
}

// NewDensityTable evaluates the density selected for Beta(a, b) at xs.
func NewDensityTable(a, b float64, xs []float64) DensityTable {
	pdf := density.Select(a, b)
	points := make([]DensityPoint, len(xs))

	for i, x := range xs {
		points[i] = DensityPoint{X: Number(x), Density: Number(pdf.Evaluate(x)), CDF: Number(pdf.CDF(x))}
	}

	return DensityTable{
		Kind:   pdf.Kind(),
		A:      a,
		B:      b,
		Mean:   Number(density.MeanBeta(a, b)),
		SD:     Number(density.SDBeta(a, b)),
		Points: points,
	}
}

// WriteDensityText renders a density table.
func WriteDensityText(w io.Writer, dt DensityTable) {
	tbl := newTable(w)
	tbl.SetTitle(fmt.Sprintf("Beta(%g, %g) using %s density, mean %s, sd %s", dt.A, dt.B, dt.Kind, number(dt.Mean), number(dt.SD)))
	tbl.AppendHeader(table.Row{"x", "density", "cdf"})

	for _, p := range dt.Points {
		tbl.AppendRow(table.Row{number(p.X), number(p.Density), number(p.CDF)})
	}

	tbl.Render()
}

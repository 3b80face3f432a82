// Package report renders estimation results and descriptive summaries as
// text tables, JSON, YAML, or an HTML lift histogram.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/improvement"
)

// Format is an output format name.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or yaml)", ErrUnknownFormat, name)
	}
}

// Lift quantiles reported next to the summary.
var liftQuantiles = []float64{stats.PercentileP05, stats.PercentileMedian, stats.PercentileP95}

// Number is a float64 that encodes NaN and infinities as JSON strings
// ("NaN", "+Inf", "-Inf") instead of failing, since empty inputs and zero
// draws legitimately produce them.
type Number float64

// MarshalJSON implements [json.Marshaler].
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)

	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal number: %w", err)
	}

	return data, nil
}

// Improvement is the serializable view of an [improvement.Report].
type Improvement struct {
	Params      improvement.Params `json:"params"               yaml:"params"`
	Probability Number             `json:"probability"          yaml:"probability"`
	Mean        Number             `json:"mean"                 yaml:"mean"`
	SD          Number             `json:"sd"                   yaml:"sd"`
	Exact       *float64           `json:"exact,omitempty"      yaml:"exact,omitempty"`
	LiftP05     Number             `json:"lift_p05"             yaml:"lift_p05"`
	LiftMedian  Number             `json:"lift_median"          yaml:"lift_median"`
	LiftP95     Number             `json:"lift_p95"             yaml:"lift_p95"`
	SampleCount int                `json:"sample_count"         yaml:"sample_count"`
	Workers     int                `json:"workers"              yaml:"workers"`
	Seed        uint64             `json:"seed"                 yaml:"seed"`
	Elapsed     string             `json:"elapsed"              yaml:"elapsed"`
	NonFinite   int                `json:"non_finite,omitempty" yaml:"non_finite,omitempty"`
}

// NewImprovement builds the serializable view, computing lift quantiles over
// the finite lifts only.
func NewImprovement(rep improvement.Report) Improvement {
	finite := FiniteValues(rep.Lifts)
	quantiles := make([]Number, len(liftQuantiles))

	for i, q := range liftQuantiles {
		quantiles[i] = Number(stats.Percentile(finite, q))
	}

	return Improvement{
		Params:      rep.Params,
		Probability: Number(rep.Summary.Probability),
		Mean:        Number(rep.Summary.Mean),
		SD:          Number(rep.Summary.SD),
		Exact:       rep.Exact,
		LiftP05:     quantiles[0],
		LiftMedian:  quantiles[1],
		LiftP95:     quantiles[2],
		SampleCount: rep.SampleCount,
		Workers:     rep.Workers,
		Seed:        rep.Seed,
		Elapsed:     rep.Elapsed.Round(time.Millisecond).String(),
		NonFinite:   len(rep.Lifts) - len(finite),
	}
}

// FiniteValues returns the values that are neither NaN nor infinite.
func FiniteValues(values []float64) []float64 {
	finite := make([]float64, 0, len(values))

	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	return finite
}

// Write renders value in the given structured format. FormatText is handled
// by the typed renderers and is rejected here.
func Write(w io.Writer, format Format, value any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(value)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case FormatText:
		return fmt.Errorf("%w: text has no generic encoder", ErrUnknownFormat)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricEstimatesTotal    = "probably.estimate.runs.total"
	metricDrawsTotal        = "probably.estimate.draws.total"
	metricEstimateDuration  = "probably.estimate.duration.seconds"
	metricEstimateWorkers   = "probably.estimate.workers"
	metricProbabilityResult = "probably.estimate.probability"

	attrExact = "exact"
)

// probabilityBucketBoundaries splits [0, 1] into deciles, with finer buckets
// at the tails where A/B decisions are made.
var probabilityBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99}

// EstimateMetrics holds OTel instruments for improvement estimation runs.
type EstimateMetrics struct {
	runsTotal   metric.Int64Counter
	drawsTotal  metric.Int64Counter
	duration    metric.Float64Histogram
	workers     metric.Int64Histogram
	probability metric.Float64Histogram
}

// EstimateStats describes one finished estimation run, decoupled from the
// improvement package types.
type EstimateStats struct {
	SampleCount int
	Workers     int
	Probability float64
	Elapsed     time.Duration
	Exact       bool
}

// NewEstimateMetrics creates estimation instruments from the given meter.
func NewEstimateMetrics(mt metric.Meter) (*EstimateMetrics, error) {
	runs, err := mt.Int64Counter(metricEstimatesTotal,
		metric.WithDescription("Total number of improvement estimates"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEstimatesTotal, err)
	}

	draws, err := mt.Int64Counter(metricDrawsTotal,
		metric.WithDescription("Total number of accepted paired draws"),
		metric.WithUnit("{draw}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDrawsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricEstimateDuration,
		metric.WithDescription("Estimation wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEstimateDuration, err)
	}

	workers, err := mt.Int64Histogram(metricEstimateWorkers,
		metric.WithDescription("Sampling goroutines per estimate"),
		metric.WithUnit("{worker}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEstimateWorkers, err)
	}

	probability, err := mt.Float64Histogram(metricProbabilityResult,
		metric.WithDescription("Estimated probability of improvement"),
		metric.WithExplicitBucketBoundaries(probabilityBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProbabilityResult, err)
	}

	return &EstimateMetrics{
		runsTotal:   runs,
		drawsTotal:  draws,
		duration:    duration,
		workers:     workers,
		probability: probability,
	}, nil
}

// Record records the statistics of one estimation run. A nil receiver is a no-op.
func (em *EstimateMetrics) Record(ctx context.Context, stats EstimateStats) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool(attrExact, stats.Exact))

	em.runsTotal.Add(ctx, 1, attrs)
	em.drawsTotal.Add(ctx, int64(stats.SampleCount))
	em.duration.Record(ctx, stats.Elapsed.Seconds(), attrs)
	em.workers.Record(ctx, int64(stats.Workers))
	em.probability.Record(ctx, stats.Probability)
}

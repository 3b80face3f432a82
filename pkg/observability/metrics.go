package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/probably/pkg/density"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

const (
	metricRequestsTotal    = "probably.requests.total"
	metricRequestDuration  = "probably.request.duration.seconds"
	metricErrorsTotal      = "probably.errors.total"
	metricInflightRequests = "probably.inflight.requests"

	attrOp      = "op"
	attrStatus  = "status"
	attrDensity = "density"
)

// Request outcome classes, recorded as the status attribute.
const (
	StatusOK = "ok"
	// StatusInvalid marks a request rejected before any sampling.
	StatusInvalid = "invalid"
	// StatusExhausted marks a draw that hit its rejection cap.
	StatusExhausted = "exhausted"
	// StatusCanceled marks a request whose context ended first.
	StatusCanceled = "canceled"
	StatusError    = "error"
)

// DensityMixed labels a request that sampled one beta and one normal density.
const DensityMixed = "mixed"

// durationBucketBoundaries covers 1ms to 120s: a density evaluation is
// sub-millisecond while a million-draw estimate takes seconds.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Classify maps an operation error to its outcome class.
func Classify(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, sampling.ErrExhausted):
		return StatusExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}

// DensityVariant names the density variant shared by kinds, or [DensityMixed]
// when they differ. No kinds yields "".
func DensityVariant(kinds ...density.Kind) string {
	if len(kinds) == 0 {
		return ""
	}

	for _, k := range kinds[1:] {
		if k != kinds[0] {
			return DensityMixed
		}
	}

	return string(kinds[0])
}

// Request describes one finished operation.
type Request struct {
	Op string
	// Density is the variant sampled or evaluated; empty when none was.
	Density  string
	Status   string
	Duration time.Duration
}

// REDMetrics counts requests by operation, outcome, and density variant.
type REDMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	errs     metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics creates the request instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	var (
		rm   REDMetrics
		errs []error
	)

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := mt.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", name, err))
		}

		return c
	}

	rm.requests = counter(metricRequestsTotal, "Finished requests by outcome and density variant", "{request}")
	rm.errs = counter(metricErrorsTotal, "Failed requests by outcome class", "{error}")

	var err error

	rm.duration, err = mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("create %s: %w", metricRequestDuration, err))
	}

	rm.inflight, err = mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("create %s: %w", metricInflightRequests, err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &rm, nil
}

// RecordRequest records one finished request. Every status other than
// [StatusOK] also counts as an error of that class. A nil receiver is a no-op.
func (rm *REDMetrics) RecordRequest(ctx context.Context, req Request) {
	if rm == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOp, req.Op),
		attribute.String(attrStatus, req.Status),
	}

	if req.Density != "" {
		attrs = append(attrs, attribute.String(attrDensity, req.Density))
	}

	set := metric.WithAttributes(attrs...)

	rm.requests.Add(ctx, 1, set)
	rm.duration.Record(ctx, req.Duration.Seconds(), set)

	if req.Status != StatusOK {
		rm.errs.Add(ctx, 1, metric.WithAttributes(attrs[:2]...))
	}
}

// TrackInflight counts op as in flight until the returned func is called.
// A nil receiver returns a no-op func.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	set := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflight.Add(ctx, 1, set)

	return func() {
		rm.inflight.Add(ctx, -1, set)
	}
}

type requestNoteKey struct{}

// RequestNote carries what a handler learns while serving a request back to
// the wrapper that records its metrics.
type RequestNote struct {
	Density string
	Err     error
}

// WithRequestNote returns ctx carrying an empty note and the note itself.
func WithRequestNote(ctx context.Context) (context.Context, *RequestNote) {
	note := &RequestNote{}

	return context.WithValue(ctx, requestNoteKey{}, note), note
}

// NoteRequest stores the density variant and error of the request served
// under ctx. It does nothing when ctx carries no note.
func NoteRequest(ctx context.Context, variant string, err error) {
	note, ok := ctx.Value(requestNoteKey{}).(*RequestNote)
	if !ok {
		return
	}

	note.Density = variant
	note.Err = err
}

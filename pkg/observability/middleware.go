package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const opHTTPPrefix = "http."

// responseRecorder wraps [http.ResponseWriter] to capture the status code and
// the number of body bytes written.
type responseRecorder struct {
	http.ResponseWriter

	code  int
	bytes int
}

// WriteHeader records the first status code sent.
func (rr *responseRecorder) WriteHeader(code int) {
	if rr.code == 0 {
		rr.code = code
	}

	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(buf []byte) (int, error) {
	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	n, err := rr.ResponseWriter.Write(buf)
	rr.bytes += n

	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// status returns the recorded code, defaulting to 200 for handlers that
// never wrote anything.
func (rr *responseRecorder) status() int {
	if rr.code == 0 {
		return http.StatusOK
	}

	return rr.code
}

// HTTPMiddleware wraps next with a server span per request, continuing any
// W3C trace context found in the headers. When red is non-nil it also records
// request metrics under the operation "http.<path>", taking the density
// variant and error class from the [RequestNote] the handler filled. A 4xx
// without a noted error counts as invalid; only 5xx marks the span as failed.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()
		op := opHTTPPrefix + hr.URL.Path

		ctx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))
		ctx, span := tracer.Start(ctx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		ctx = WithLogAttrs(ctx, slog.String("http.method", hr.Method), slog.String("http.path", hr.URL.Path))

		ctx, note := WithRequestNote(ctx)

		defer red.TrackInflight(ctx, op)()

		rec := &responseRecorder{ResponseWriter: rw}
		next.ServeHTTP(rec, hr.WithContext(ctx))

		code := rec.status()
		span.SetAttributes(
			semconv.HTTPResponseStatusCode(code),
			semconv.HTTPResponseBodySize(rec.bytes),
		)

		if code >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(code))
		}

		red.RecordRequest(ctx, Request{
			Op:       op,
			Density:  note.Density,
			Status:   httpStatus(code, note.Err),
			Duration: time.Since(start),
		})
	})
}

// httpStatus classifies a response by the noted error, falling back to its code.
func httpStatus(code int, err error) string {
	switch {
	case code < http.StatusBadRequest:
		return StatusOK
	case err != nil:
		return Classify(err)
	case code < http.StatusInternalServerError:
		return StatusInvalid
	default:
		return StatusError
	}
}

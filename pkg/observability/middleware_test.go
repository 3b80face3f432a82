package observability_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

func TestHTTPMiddleware_SpanAndMetrics(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	next := http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		if hr.URL.Path == "/fail" {
			rw.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = rw.Write([]byte("ok"))
	})

	handler := observability.HTTPMiddleware(tp.Tracer("test"), red, next)

	for _, path := range []string{"/ok", "/fail"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /ok", spans[0].Name())
	assert.Equal(t, "GET /fail", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}

	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, int64(2), attrs["http.response.body.size"].AsInt64())

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, metrics["probably.requests.total"]))
	assert.Equal(t, int64(1), sumValue(t, metrics["probably.errors.total"]))
}

func TestHTTPMiddleware_ClientErrorCountsWithoutFailingSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		http.Error(rw, "bad", http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tp.Tracer("test"), red, next).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/improvement", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	metrics := collect(t, reader)
	assert.Equal(t,
		map[string]int64{observability.StatusInvalid: 1},
		sumBy(t, metrics["probably.errors.total"], "status"),
	)
}

func TestHTTPMiddleware_NotedExhaustion(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	next := http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		observability.NoteRequest(hr.Context(), "normal", fmt.Errorf("sample: %w", sampling.ErrExhausted))
		http.Error(rw, "exhausted", http.StatusUnprocessableEntity)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(sdktrace.NewTracerProvider().Tracer("test"), red, next).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/improvement", nil))

	metrics := collect(t, reader)
	assert.Equal(t,
		map[string]int64{observability.StatusExhausted: 1},
		sumBy(t, metrics["probably.errors.total"], "status"),
	)
	assert.Equal(t,
		map[string]int64{"normal": 1},
		sumBy(t, metrics["probably.requests.total"], "density"),
	)
}

func TestHTTPMiddleware_NilMetrics(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tp.Tracer("test"), nil, next).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler("v1.2.3").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"v1.2.3"}`, rec.Body.String())

	failing := map[string]observability.ReadyCheck{
		"sampler": func(_ context.Context) error { return errors.New("exhausted") },
	}

	rec = httptest.NewRecorder()
	observability.ReadyHandler(failing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","failed":{"sampler":"exhausted"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	observability.ReadyHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Package server implements the HTTP surface: improvement estimates over JSON,
// Prometheus metrics, and health checks.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/probably/pkg/improvement"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/report"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

// Routes.
const (
	PathImprovement = "/v1/improvement"
	PathMetrics     = "/metrics"
	PathHealth      = "/healthz"
	PathReady       = "/readyz"
)

// maxBodyBytes bounds the request body; a valid request is well under 1 KiB.
const maxBodyBytes = 64 << 10

const shutdownTimeout = 10 * time.Second

//go:embed improvement-request.schema.json
var improvementSchema []byte

// Sentinel errors for request handling.
var (
	// ErrInvalidRequest indicates a request body that fails schema validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTooManySamples indicates a sample count above the configured limit.
	ErrTooManySamples = errors.New("sample count exceeds server limit")
)

// ImprovementRequest is the body of POST /v1/improvement.
type ImprovementRequest struct {
	A1      float64 `json:"a1"`
	B1      float64 `json:"b1"`
	A2      float64 `json:"a2"`
	B2      float64 `json:"b2"`
	Samples int     `json:"samples,omitempty"`
	Seed    uint64  `json:"seed,omitempty"`
	Exact   bool    `json:"exact,omitempty"`
}

// Deps holds the dependencies of the HTTP handler. Zero-value fields use
// no-op defaults.
type Deps struct {
	Logger          *slog.Logger
	Tracer          trace.Tracer
	RED             *observability.REDMetrics
	EstimateMetrics *observability.EstimateMetrics

	// Registry backs /metrics. Nil leaves the route unregistered.
	Registry *prometheus.Registry

	Version string

	// DefaultSampleCount applies when a request omits samples.
	DefaultSampleCount int
	// MaxSampleCount rejects requests asking for more draws.
	MaxSampleCount int
	// Workers is the estimator worker count per request.
	Workers  int
	MaxIters int
}

type handler struct {
	deps   Deps
	schema *gojsonschema.Schema
}

// NewHandler builds the HTTP handler with all routes registered.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if deps.DefaultSampleCount <= 0 {
		deps.DefaultSampleCount = improvement.DefaultSampleCount
	}

	if deps.MaxSampleCount <= 0 {
		deps.MaxSampleCount = deps.DefaultSampleCount
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(improvementSchema))
	if err != nil {
		return nil, fmt.Errorf("load request schema: %w", err)
	}

	h := &handler{deps: deps, schema: schema}

	mux := http.NewServeMux()
	mux.Handle("POST "+PathImprovement,
		observability.HTTPMiddleware(deps.Tracer, deps.RED, http.HandlerFunc(h.handleImprovement)))
	mux.Handle("GET "+PathHealth, observability.HealthHandler(deps.Version))
	mux.Handle("GET "+PathReady, observability.ReadyHandler(map[string]observability.ReadyCheck{
		"sampler": samplerCheck,
	}))

	if deps.Registry != nil {
		mux.Handle("GET "+PathMetrics, observability.PrometheusHandler(deps.Registry))
	}

	return mux, nil
}

func (h *handler) handleImprovement(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	req, err := h.decode(hr)
	if err != nil {
		h.deps.Logger.InfoContext(ctx, "improvement request rejected", "error", err)
		writeError(rw, http.StatusBadRequest, err)

		return
	}

	samples := req.Samples
	if samples == 0 {
		samples = h.deps.DefaultSampleCount
	}

	if samples > h.deps.MaxSampleCount {
		writeError(rw, http.StatusBadRequest,
			fmt.Errorf("%w: %d > %d", ErrTooManySamples, samples, h.deps.MaxSampleCount))

		return
	}

	opts := []improvement.Option{
		improvement.WithSampleCount(samples),
		improvement.WithWorkers(h.deps.Workers),
		improvement.WithExact(req.Exact),
		improvement.WithLogger(h.deps.Logger),
	}

	if h.deps.MaxIters > 0 {
		opts = append(opts, improvement.WithMaxIters(h.deps.MaxIters))
	}

	if req.Seed != 0 {
		opts = append(opts, improvement.WithSeed(req.Seed))
	}

	params := improvement.Params{A1: req.A1, B1: req.B1, A2: req.A2, B2: req.B2}
	kinds := params.Kinds()

	rep, err := improvement.NewEstimator(opts...).Estimate(ctx, params)

	observability.NoteRequest(ctx, observability.DensityVariant(kinds[:]...), err)

	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "improvement estimate failed", "error", err)
		writeError(rw, http.StatusUnprocessableEntity, err)

		return
	}

	h.deps.EstimateMetrics.Record(ctx, observability.EstimateStats{
		SampleCount: rep.SampleCount,
		Workers:     rep.Workers,
		Probability: rep.Summary.Probability,
		Elapsed:     rep.Elapsed,
		Exact:       rep.Exact != nil,
	})

	writeJSON(rw, http.StatusOK, report.NewImprovement(rep))
}

// decode reads the body, validates it against the request schema, and
// unmarshals it.
func (h *handler) decode(hr *http.Request) (ImprovementRequest, error) {
	body, err := io.ReadAll(io.LimitReader(hr.Body, maxBodyBytes))
	if err != nil {
		return ImprovementRequest{}, fmt.Errorf("%w: read body: %w", ErrInvalidRequest, err)
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return ImprovementRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return ImprovementRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	var req ImprovementRequest

	err = json.Unmarshal(body, &req)
	if err != nil {
		return ImprovementRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return req, nil
}

// samplerCheck draws one value to confirm the sampling path works.
func samplerCheck(context.Context) error {
	_, err := sampling.NewBetaSampler(2, 2).Sample(rng.New(1))

	return err
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(rw http.ResponseWriter, code int, err error) {
	writeJSON(rw, code, errorBody{Error: err.Error()})
}

func writeJSON(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(body)
}

// Options configures [Serve].
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Serve listens on opts.Addr and serves h until ctx is canceled, then shuts
// down gracefully.
func Serve(ctx context.Context, h http.Handler, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}

	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(listener)
	}()

	logger.InfoContext(ctx, "http server listening", "addr", listener.Addr().String())

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.InfoContext(ctx, "http server shutting down")

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

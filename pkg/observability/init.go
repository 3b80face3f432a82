package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName scopes the tracer and meter.
const instrumentationName = "github.com/Sumatoshi-tech/probably"

// Providers is what [Init] hands to a command: the tracer, meter, and logger,
// plus the probably instruments already registered on the meter.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// Requests counts CLI, MCP, and HTTP requests by outcome and density.
	Requests *REDMetrics

	// Estimates records the statistics of finished improvement estimates.
	Estimates *EstimateMetrics

	// Shutdown flushes pending telemetry. Call it once before exit.
	Shutdown func(ctx context.Context) error
}

// shutdownFunc flushes and stops one provider.
type shutdownFunc func(ctx context.Context) error

// Init wires tracing, metrics, and logging for one run of the binary.
// Without an OTLP endpoint or a Prometheus registerer the tracer and meter
// are no-ops, so the instruments cost nothing and only the logger writes.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return Providers{}, err
	}

	var stops []shutdownFunc

	shutdown := func(shutdownCtx context.Context) error {
		wait := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
		if wait <= 0 {
			wait = defaultShutdownTimeoutSec * time.Second
		}

		deadlineCtx, cancel := context.WithTimeout(shutdownCtx, wait)
		defer cancel()

		errs := make([]error, 0, len(stops))
		for _, stop := range stops {
			errs = append(errs, stop(deadlineCtx))
		}

		return errors.Join(errs...)
	}

	tp, stopTraces, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, fmt.Errorf("build tracer provider: %w", err)
	}

	stops = append(stops, stopTraces)

	mp, stopMetrics, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), shutdown(ctx))
	}

	stops = append(stops, stopMetrics)

	meter := mp.Meter(instrumentationName)

	requests, err := NewREDMetrics(meter)
	if err != nil {
		return Providers{}, errors.Join(err, shutdown(ctx))
	}

	estimates, err := NewEstimateMetrics(meter)
	if err != nil {
		return Providers{}, errors.Join(err, shutdown(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return Providers{
		Tracer:    tp.Tracer(instrumentationName),
		Meter:     meter,
		Logger:    newLogger(cfg),
		Requests:  requests,
		Estimates: estimates,
		Shutdown:  shutdown,
	}, nil
}

// newResource describes this process: service identity plus the mode it runs in.
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	for _, opt := range []struct {
		value string
		kv    func(string) attribute.KeyValue
	}{
		{cfg.ServiceVersion, semconv.ServiceVersion},
		{cfg.Environment, semconv.DeploymentEnvironment},
		{string(cfg.Mode), attribute.Key("app.mode").String},
	} {
		if opt.value != "" {
			attrs = append(attrs, opt.kv(opt.value))
		}
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func noopShutdown(context.Context) error { return nil }

// otlpOptions applies the endpoint, TLS, and header settings of cfg through
// the exporter-specific option constructors.
func otlpOptions[O any](cfg Config, endpoint func(string) O, insecure func() O, headers func(map[string]string) O) []O {
	opts := []O{endpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, insecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, headers(cfg.OTLPHeaders))
	}

	return opts
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (trace.TracerProvider, shutdownFunc, error) {
	if cfg.OTLPEndpoint == "" {
		return nooptrace.NewTracerProvider(), noopShutdown, nil
	}

	exporter, err := otlptracegrpc.New(ctx, otlpOptions(cfg,
		otlptracegrpc.WithEndpoint, otlptracegrpc.WithInsecure, otlptracegrpc.WithHeaders)...)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(traceSampler(cfg)),
	)

	return tp, tp.Shutdown, nil
}

// traceSampler keeps every trace under DebugTrace, otherwise honors the
// parent decision and samples new roots at SampleRatio (all when unset).
func traceSampler(cfg Config) sdktrace.Sampler {
	switch {
	case cfg.DebugTrace:
		return sdktrace.AlwaysSample()
	case cfg.SampleRatio > 0:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

func newLogger(cfg Config) *slog.Logger {
	out := cfg.LogWriter
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// newMeterProvider attaches a reader per configured sink: the Prometheus
// registerer for /metrics and a periodic OTLP push.
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (metric.MeterProvider, shutdownFunc, error) {
	var readers []sdkmetric.Reader

	if cfg.PrometheusRegisterer != nil {
		reader, err := promexporter.New(promexporter.WithRegisterer(cfg.PrometheusRegisterer))
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}

		readers = append(readers, reader)
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx, otlpOptions(cfg,
			otlpmetricgrpc.WithEndpoint, otlpmetricgrpc.WithInsecure, otlpmetricgrpc.WithHeaders)...)
		if err != nil {
			return nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}

		readers = append(readers, sdkmetric.NewPeriodicReader(exporter))
	}

	if len(readers) == 0 {
		return noopmetric.NewMeterProvider(), noopShutdown, nil
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	return mp, mp.Shutdown, nil
}

// ParseOTLPHeaders parses an OTLP headers string in "key=value,key=value"
// format. Returns nil for empty or invalid input.
func ParseOTLPHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}

	result := make(map[string]string)

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}

		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

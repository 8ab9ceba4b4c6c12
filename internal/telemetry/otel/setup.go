// Package otel wires the background service's OpenTelemetry providers to an OTLP/gRPC collector
// and exposes a telemetry sink that emits events as OTel log records.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.uber.org/zap"

	"accessibility-insights/background/internal/logging"
)

// metricInterval is how often telemetry counters are pushed to the collector.
const metricInterval = 10 * time.Second

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// Collector is a parsed OTLP endpoint: the host:port dialed by the gRPC exporters and whether
// the connection skips TLS.
type Collector struct {
	Target   string
	Insecure bool
}

// ParseCollector accepts host:port or a URL; scheme-less input is treated as http. Any path or
// query is dropped. Only https dials with TLS, and insecureOverride forces plaintext regardless.
func ParseCollector(endpoint string, insecureOverride bool) (Collector, error) {
	raw := strings.TrimSpace(endpoint)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Collector{}, fmt.Errorf("otel: invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return Collector{}, fmt.Errorf("otel: invalid OTLP endpoint %q: missing host", endpoint)
	}
	return Collector{Target: u.Host, Insecure: insecureOverride || u.Scheme != "https"}, nil
}

// serviceResource describes the extension service; version is omitted when empty.
func serviceResource(name, version string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(name)}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(version))
	}
	return resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
}

// shutdownChain stops providers in reverse start order.
type shutdownChain struct {
	fns    []func(context.Context) error
	logger *zap.Logger
}

func (c *shutdownChain) add(fn func(context.Context) error) { c.fns = append(c.fns, fn) }

// run calls every registered shutdown and joins the failures.
func (c *shutdownChain) run(ctx context.Context) error {
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](ctx); err != nil {
			c.logger.Warn("telemetry: provider shutdown", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewProviders builds tracer, meter, and logger providers exporting over OTLP/gRPC to endpoint
// (see ParseCollector). A blank endpoint yields unexported providers with a no-op Shutdown.
// serviceVersion is recorded as service.version when non-empty.
func NewProviders(ctx context.Context, endpoint, serviceName, serviceVersion string, insecureOverride bool, logger *zap.Logger) (*Providers, error) {
	logger = logging.OrNop(logger)
	if strings.TrimSpace(endpoint) == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	col, err := ParseCollector(endpoint, insecureOverride)
	if err != nil {
		return nil, err
	}
	res, err := serviceResource(serviceName, serviceVersion)
	if err != nil {
		return nil, fmt.Errorf("otel: resource: %w", err)
	}

	chain := &shutdownChain{logger: logger}
	fail := func(signal string, err error) (*Providers, error) {
		_ = chain.run(ctx)
		return nil, fmt.Errorf("otel: %s exporter: %w", signal, err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(col.Target)}
	if col.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
	}
	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return fail("trace", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	chain.add(tp.Shutdown)

	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(col.Target)}
	if col.Insecure {
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return fail("metric", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(metricInterval))),
	)
	chain.add(mp.Shutdown)

	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(col.Target)}
	if col.Insecure {
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}
	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return fail("log", err)
	}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)), sdklog.WithResource(res))
	chain.add(lp.Shutdown)

	logger.Info("telemetry: exporting to OTLP collector", zap.String("target", col.Target), zap.Bool("insecure", col.Insecure))
	return &Providers{TracerProvider: tp, MeterProvider: mp, LoggerProvider: lp, Shutdown: chain.run}, nil
}

// SetGlobal installs the tracer and meter providers globally for otelgrpc instrumentation.
// The logger provider is not global; hand it to NewEventSink.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}

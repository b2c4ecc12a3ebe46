package tgscreenshots

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracer is the package-level tracer used by all instrumented code.
// It stays a noop until InitTelemetry finds an OTLP endpoint.
var tracer trace.Tracer = noop.NewTracerProvider().Tracer("tgscreenshots")

// counters are the delivery metrics. Replaced by setMeter.
var counters = newCounters(metricnoop.NewMeterProvider().Meter("tgscreenshots"))

type deliveryCounters struct {
	delivered metric.Int64Counter
	skipped   metric.Int64Counter
	failed    metric.Int64Counter
}

func newCounters(m metric.Meter) deliveryCounters {
	delivered, _ := m.Int64Counter("tgscreenshots.delivered",
		metric.WithDescription("Messages delivered and recorded"))
	skipped, _ := m.Int64Counter("tgscreenshots.skipped",
		metric.WithDescription("Files skipped because their hash was already sent"))
	failed, _ := m.Int64Counter("tgscreenshots.failed",
		metric.WithDescription("Failed pipeline steps, by stage"))
	return deliveryCounters{delivered: delivered, skipped: skipped, failed: failed}
}

func setMeter(m metric.Meter) { counters = newCounters(m) }

func countDelivered(ctx context.Context) { counters.delivered.Add(ctx, 1) }
func countSkipped(ctx context.Context)   { counters.skipped.Add(ctx, 1) }

func countFailed(ctx context.Context, stage string) {
	counters.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// InitTelemetry sets up tracing and metrics over OTLP/HTTP when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. Otherwise everything stays noop.
// The returned function flushes and closes the exporters.
func InitTelemetry(serviceName, ver string) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ver),
		),
	)

	var shutdowns []func(context.Context) error

	if exp, err := otlptracehttp.New(context.Background()); err == nil {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(serviceName)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if exp, err := otlpmetrichttp.New(context.Background()); err == nil {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		setMeter(mp.Meter(serviceName))
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return func(ctx context.Context) error {
		var errs error
		for _, fn := range shutdowns {
			errs = errors.Join(errs, fn(ctx))
		}
		return errs
	}
}

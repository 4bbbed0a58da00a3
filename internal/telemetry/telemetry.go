// Package telemetry installs the OpenTelemetry tracer provider used by the
// storage spans.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/hotel-reservation/internal/config"
)

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(context.Context) error

// Setup returns the tracer provider for cfg.  When tracing is disabled it
// returns the global provider unchanged and a no-op Shutdown.  Otherwise
// it builds an SDK provider exporting over OTLP/HTTP in batches and
// installs it as the global provider.
func Setup(ctx context.Context, cfg config.TracingConfig) (trace.TracerProvider, Shutdown, error) {
	if !cfg.Enabled {
		return otel.GetTracerProvider(), func(context.Context) error { return nil }, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

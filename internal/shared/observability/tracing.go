package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "importcycles"

// Tracer resolves through the global provider, so spans are no-ops until
// SetupTracing installs an exporter.
var Tracer trace.Tracer = otel.Tracer(tracerName)

// SetupTracing installs an OTLP/gRPC exporter for endpoint. An empty endpoint
// leaves tracing disabled. The returned function flushes and shuts down the
// provider.
func SetupTracing(ctx context.Context, endpoint, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter for %s: %w", endpoint, err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", tracerName),
		attribute.String("service.version", version),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(tracerName)

	return provider.Shutdown, nil
}

package telemetry

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "issues-copy"

// TelemetryConfig holds the configuration for telemetry
type TelemetryConfig struct {
	Enabled bool
	// Endpoint is the OTLP/HTTP collector URL. Empty uses the exporter's default or OTEL_EXPORTER_OTLP_* variables
	Endpoint string
	Version  string
}

// Provider manages the tracing pipeline. When telemetry is disabled the global no-op tracer stays in place
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
}

// NewProvider creates a new telemetry provider and installs it as the global tracer provider
func NewProvider(ctx context.Context, config TelemetryConfig) (*Provider, error) {
	if !config.Enabled {
		log.Printf("[telemetry] Telemetry disabled")
		return &Provider{}, nil
	}

	var opts []otlptracehttp.Option
	if config.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(config.Endpoint))
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", config.Version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Printf("[telemetry] Telemetry enabled, exporting traces over OTLP/HTTP")

	return &Provider{tracerProvider: tp}, nil
}

// Shutdown flushes pending spans and shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	log.Printf("[telemetry] Shutting down telemetry provider")
	return p.tracerProvider.Shutdown(ctx)
}

// NewRunID generates a new run UUID
func NewRunID() string {
	return uuid.New().String()
}

// Package tracing initializes OpenTelemetry trace export to a Jaeger collector.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// Provider owns the process TracerProvider. When tracing is disabled it
// hands out no-op tracers and Start registers nothing.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger *slog.Logger
}

// New creates a Provider. When enabled, the Jaeger exporter and batch span
// processor are installed as the global TracerProvider and propagator.
func New(cfg *Config, serviceName string, logger *slog.Logger) (*Provider, error) {
	logger = logger.With("system", "tracing")

	if !cfg.Enabled {
		return &Provider{logger: logger}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized", "service", serviceName, "endpoint", cfg.Endpoint)
	return &Provider{tp: tp, logger: logger}, nil
}

// Tracer returns a named tracer from the active provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Start registers a shutdown hook that flushes buffered spans.
func (p *Provider) Start(lc *lifecycle.Coordinator) error {
	if p.tp == nil {
		return nil
	}

	lc.OnShutdown("tracing", func(ctx context.Context) error {
		if err := p.tp.Shutdown(ctx); err != nil {
			return err
		}
		p.logger.Info("tracer provider shut down")
		return nil
	})

	return nil
}

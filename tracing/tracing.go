package tracing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ozontech/s3-uploader/internal/app/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	serviceName    string
	tracerProvider *tracesdk.TracerProvider
)

type Settings struct {
	ServiceName  string
	AgentHost    string
	AgentPort    string
	SamplerParam float64
}

// Initialize registers a global jaeger-backed tracer provider. Without
// config spans are still created by the default no-op provider.
func Initialize(cfg *config.Tracing) (Settings, error) {
	if cfg == nil {
		return Settings{}, errors.New("tracing config is not set")
	}
	if err := validateTracingConfig(cfg); err != nil {
		return Settings{}, fmt.Errorf("invalid tracing config: %w", err)
	}

	tp, err := newTracerProvider(cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("can't create trace provider: %w", err)
	}

	// Register our TracerProvider as the global so any imported
	// instrumentation in the future will default to using it.
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	serviceName = cfg.ServiceName
	tracerProvider = tp

	return Settings{
		ServiceName:  cfg.ServiceName,
		AgentHost:    cfg.Jaeger.AgentHost,
		AgentPort:    cfg.Jaeger.AgentPort,
		SamplerParam: cfg.Sampler.Param,
	}, nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(serviceName).Start(ctx, name)
}

func validateTracingConfig(cfg *config.Tracing) error {
	if cfg.ServiceName == "" {
		return errors.New("empty service_name")
	}
	if cfg.Jaeger.AgentHost == "" {
		return errors.New("empty jaeger agent_host")
	}
	if cfg.Jaeger.AgentPort == "" {
		return errors.New("empty jaeger agent_port")
	}
	if cfg.Sampler.Param < 0 || cfg.Sampler.Param > 1 {
		return fmt.Errorf("sampler param must be in [0, 1], got %v", cfg.Sampler.Param)
	}
	return nil
}

func newTracerProvider(cfg *config.Tracing) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(
		jaeger.WithAgentEndpoint(
			jaeger.WithAgentHost(cfg.Jaeger.AgentHost),
			jaeger.WithAgentPort(cfg.Jaeger.AgentPort),
		),
	)
	if err != nil {
		return nil, err
	}

	return tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.TraceIDRatioBased(cfg.Sampler.Param)),
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	), nil
}

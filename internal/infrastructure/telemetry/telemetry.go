// Package telemetry configura el exportador de trazas OTLP.
package telemetry

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jhoicas/facturabodega-api/pkg/config"
)

// Shutdown vacía y cierra el proveedor de trazas.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup registra un TracerProvider global que exporta por OTLP/gRPC.
// Con endpoint vacío no hace nada y otel usa su proveedor no-op.
func Setup(ctx context.Context, serviceName, env string, cfg config.TelemetryConfig, log zerolog.Logger) Shutdown {
	if cfg.Endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("otel: crear exportador")
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(env),
	))
	if err != nil {
		log.Warn().Err(err).Msg("otel: recurso parcial")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Info().Str("endpoint", cfg.Endpoint).Msg("tracing OTLP activo")
	return provider.Shutdown
}

package observability

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires logging, tracing and metrics for the application.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		NewLogger,
		NewTracerProvider,
		NewMeterProvider,
		NewMetrics,
	),
	fx.Invoke(ensureTracerProvider),
)

func ensureTracerProvider(_ *sdktrace.TracerProvider) {}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Metrics exposes tenancy-level instruments.
type Metrics struct {
	provisions  metric.Int64Counter
	resolutions metric.Int64Counter
}

// NewMeterProvider configures and registers the global meter provider.
func NewMeterProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.OtelEnabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newMetricExporter(cfg.OtelExporterProtocol, cfg.OtelExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

func newMetricExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch protocol {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// NewMetrics configures the tenancy instruments.
func NewMetrics(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(cfg.ServiceName)

	provisions, err := meter.Int64Counter("storelane_tenant_provisions_total")
	if err != nil {
		return nil, err
	}
	resolutions, err := meter.Int64Counter("storelane_tenant_resolutions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		provisions:  provisions,
		resolutions: resolutions,
	}, nil
}

// RecordProvision counts a provisioning attempt by outcome.
func (m *Metrics) RecordProvision(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.provisions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordResolution counts a tenant resolution by outcome.
func (m *Metrics) RecordResolution(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

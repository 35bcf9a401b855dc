package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/astrosynth/atlas/internal/planet/domain"
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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the pipeline's instruments. Every failed tier is counted,
// so the swallow-and-continue cascade still leaves a structured trail.
type Metrics struct {
	cacheHits    metric.Int64Counter
	tierAttempts metric.Int64Counter
	tierFailures metric.Int64Counter
	tierRecords  metric.Int64Counter
	tierDuration metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "atlas"
	}
	meter := provider.Meter(name)

	cacheHits, err := meter.Int64Counter("atlas_cache_hits_total")
	if err != nil {
		return nil, err
	}
	tierAttempts, err := meter.Int64Counter("atlas_tier_attempts_total")
	if err != nil {
		return nil, err
	}
	tierFailures, err := meter.Int64Counter("atlas_tier_failures_total")
	if err != nil {
		return nil, err
	}
	tierRecords, err := meter.Int64Counter("atlas_tier_records_total")
	if err != nil {
		return nil, err
	}
	tierDuration, err := meter.Float64Histogram("atlas_tier_duration_seconds",
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheHits:    cacheHits,
		tierAttempts: tierAttempts,
		tierFailures: tierFailures,
		tierRecords:  tierRecords,
		tierDuration: tierDuration,
	}, nil
}

// RecordCacheHit counts fetches served straight from the warm cache.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1)
}

// RecordTierAttempt counts a cascade tier invocation.
func (m *Metrics) RecordTierAttempt(ctx context.Context, tier domain.Source) {
	if m == nil {
		return
	}
	m.tierAttempts.Add(ctx, 1, metric.WithAttributes(tierAttr(tier)))
}

// RecordTierFailure counts a tier that produced nothing.
func (m *Metrics) RecordTierFailure(ctx context.Context, tier domain.Source) {
	if m == nil {
		return
	}
	m.tierFailures.Add(ctx, 1, metric.WithAttributes(tierAttr(tier)))
}

// RecordTierSuccess counts the records a winning tier delivered.
func (m *Metrics) RecordTierSuccess(ctx context.Context, tier domain.Source, records int) {
	if m == nil {
		return
	}
	m.tierRecords.Add(ctx, int64(records), metric.WithAttributes(tierAttr(tier)))
}

// RecordTierDuration records how long a tier took, successful or not.
func (m *Metrics) RecordTierDuration(ctx context.Context, tier domain.Source, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tierDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(tierAttr(tier)))
}

func tierAttr(tier domain.Source) attribute.KeyValue {
	return attribute.String("tier", string(tier))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	}
}

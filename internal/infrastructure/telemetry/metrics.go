package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
	logger   *zap.Logger
	config   Config
}

// NewMeterProvider creates a MeterProvider exporting over OTLP gRPC, a
// Prometheus scrape registry, or both. With neither enabled, meters come
// from the global no-op provider.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mp := &MeterProvider{logger: logger, config: cfg}

	if !cfg.Enabled && !cfg.PrometheusEnabled {
		return mp, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Enabled {
		interval := cfg.MetricsInterval
		if interval == 0 {
			interval = 60 * time.Second
		}

		exporterOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
		}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))))

		logger.Info("OTLP metrics export enabled",
			zap.String("collector_endpoint", cfg.CollectorEndpoint),
			zap.Duration("export_interval", interval),
		)
	}

	if cfg.PrometheusEnabled {
		mp.registry = prometheus.NewRegistry()
		mp.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(mp.registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
		logger.Info("Prometheus metrics endpoint enabled")
	}

	mp.provider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp.provider)
	return mp, nil
}

// Handler serves the Prometheus scrape endpoint, or returns nil when the
// Prometheus exporter is off.
func (mp *MeterProvider) Handler() http.Handler {
	if mp.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending metrics. Safe to call when telemetry is disabled.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Counter is a helper for monotonically increasing values.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by value.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram is a helper for distributions such as job latency.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new Histogram metric with optional bucket boundaries.
func NewHistogram(meter metric.Meter, name, description, unit string, boundaries ...float64) (*Histogram, error) {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(description),
		metric.WithUnit(unit),
	}
	if len(boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	h, err := meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return &Histogram{histogram: h}, nil
}

// RecordDuration records d in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// Attribute keys shared by print metrics and spans.
var (
	AttrDocument  = attribute.Key("print.document")
	AttrOutcome   = attribute.Key("print.outcome")
	AttrScheme    = attribute.Key("print.transport")
	AttrErrorKind = attribute.Key("print.error_kind")
)

// PrintJobBuckets covers a fast network ticket up to a slow serial comanda (seconds).
var PrintJobBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// PrintMetrics groups the instruments recorded per print job.
type PrintMetrics struct {
	Jobs        *Counter
	OpsWritten  *Counter
	BytesSent   *Counter
	JobDuration *Histogram
	Discoveries *Counter
}

// NewPrintMetrics registers the print instruments on meter.
func NewPrintMetrics(meter metric.Meter) (*PrintMetrics, error) {
	jobs, err := NewCounter(meter, "printd.jobs", "Print jobs by document and outcome", "{job}")
	if err != nil {
		return nil, err
	}
	ops, err := NewCounter(meter, "printd.ops_written", "Render operations written to printers", "{op}")
	if err != nil {
		return nil, err
	}
	bytesSent, err := NewCounter(meter, "printd.bytes_sent", "Bytes written to printers", "By")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "printd.job.duration", "Print job duration", "s", PrintJobBuckets...)
	if err != nil {
		return nil, err
	}
	discoveries, err := NewCounter(meter, "printd.discoveries", "Printer discovery calls by outcome", "{call}")
	if err != nil {
		return nil, err
	}
	return &PrintMetrics{
		Jobs:        jobs,
		OpsWritten:  ops,
		BytesSent:   bytesSent,
		JobDuration: duration,
		Discoveries: discoveries,
	}, nil
}

// NoopPrintMetrics returns instruments backed by the global meter provider,
// which is a no-op until telemetry is enabled. Used by tests and defaults.
func NoopPrintMetrics() *PrintMetrics {
	m, err := NewPrintMetrics(otel.GetMeterProvider().Meter("printd"))
	if err != nil {
		panic(err)
	}
	return m
}

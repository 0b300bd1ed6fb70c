package metrics

import (
	"context"
	"fmt"
	"strings"
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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes rollup and scheduler instruments.
type Metrics struct {
	recomputes      metric.Int64Counter
	statusChanges   metric.Int64Counter
	danglingParents metric.Int64Counter
	jobRuns         metric.Int64Counter
	jobDuration     metric.Float64Histogram
}

// Scheduler job outcomes.
const (
	JobOutcomeOK       = "ok"
	JobOutcomeError    = "error"
	JobOutcomeTimeout  = "timeout"
	JobOutcomeLockHeld = "lock_held"
)

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

// New configures the rollup instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "repairdesk"
	}
	meter := provider.Meter(name)

	recomputes, err := meter.Int64Counter("repairdesk_rollup_recompute_total")
	if err != nil {
		return nil, err
	}
	statusChanges, err := meter.Int64Counter("repairdesk_invoice_status_change_total")
	if err != nil {
		return nil, err
	}
	danglingParents, err := meter.Int64Counter("repairdesk_rollup_dangling_parent_total")
	if err != nil {
		return nil, err
	}

	jobRuns, err := meter.Int64Counter("repairdesk_scheduler_job_runs_total")
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("repairdesk_scheduler_job_duration_seconds",
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		recomputes:      recomputes,
		statusChanges:   statusChanges,
		danglingParents: danglingParents,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
	}, nil
}

// RecordRecompute counts an aggregate recomputation for the given target and scope.
func (m *Metrics) RecordRecompute(ctx context.Context, target, scope string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("target", strings.TrimSpace(target)),
		attribute.String("scope", strings.TrimSpace(scope)),
	)
	m.recomputes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStatusChange counts derived invoice status transitions.
func (m *Metrics) RecordStatusChange(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDanglingParent counts integrity failures by child entity.
func (m *Metrics) RecordDanglingParent(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("entity", strings.TrimSpace(entity)))
	m.danglingParents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordJob counts one scheduler job run by outcome and observes its duration.
func (m *Metrics) RecordJob(ctx context.Context, job, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	jobAttr := attribute.String("job", strings.TrimSpace(job))
	m.jobRuns.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		jobAttr,
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
	m.jobDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(FilterAttributes(jobAttr)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"target":      {},
	"scope":       {},
	"from_status": {},
	"to_status":   {},
	"entity":      {},
	"job":         {},
	"outcome":     {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

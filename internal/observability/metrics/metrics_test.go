package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("invoice_id", "123"),
		attribute.String("target", "invoice"),
		attribute.String("scope", "payments"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "invoice_id" {
			t.Fatalf("invoice_id must not be used as a label")
		}
	}
}

func TestRecordRecompute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "repairdesk"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRecompute(ctx, "invoice", "payments")
	m.RecordRecompute(ctx, "invoice", "payments")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, item := range rm.ScopeMetrics[0].Metrics {
		if item.Name != "repairdesk_rollup_recompute_total" {
			continue
		}
		sum, ok := item.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(2), sum.DataPoints[0].Value)
		found = true
	}
	assert.True(t, found)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRecompute(context.Background(), "invoice", "all")
	m.RecordStatusChange(context.Background(), "draft", "paid")
	m.RecordDanglingParent(context.Background(), "task")
	m.RecordJob(context.Background(), "reconcile", JobOutcomeOK, time.Second)
}

func TestRecordJob(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "repairdesk"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordJob(ctx, "reconcile", JobOutcomeOK, 2*time.Second)
	m.RecordJob(ctx, "reconcile", JobOutcomeTimeout, time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, item := range rm.ScopeMetrics[0].Metrics {
		names[item.Name] = true
		if item.Name != "repairdesk_scheduler_job_runs_total" {
			continue
		}
		sum, ok := item.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)
	}
	assert.True(t, names["repairdesk_scheduler_job_runs_total"])
	assert.True(t, names["repairdesk_scheduler_job_duration_seconds"])
}

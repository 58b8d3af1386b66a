package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitcli/internal/config"
)

func newTestProviders(t *testing.T, metricsFile string) *OTelProviders {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(config.TelemetryConfig{
		ServiceName:   "remitcli-test",
		TraceExporter: "none",
		MetricsFile:   metricsFile,
	}, "test", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	})
	return providers
}

func TestOTelInitialization(t *testing.T) {
	providers := newTestProviders(t, "")

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{ServiceName: "x", TraceExporter: "jaeger"}, "test", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestTraceCorrelation(t *testing.T) {
	providers := newTestProviders(t, "")

	ctx, span := providers.Tracer.Start(context.Background(), "extract")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Len(t, traceID, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Empty(t, TraceIDFromContext(context.Background()))

	RecordError(ctx, errors.New("boom"))
}

func TestPipelineMetrics_ExportedToRegistry(t *testing.T) {
	providers := newTestProviders(t, "")
	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRun(ctx, "processed", 12)
	metrics.RecordRun(ctx, "no_sections", 0)
	metrics.RecordStage(ctx, "extract", 20*time.Millisecond, nil)
	metrics.RecordPersistenceFailure(ctx, "storage")

	runs, err := testutil.GatherAndCount(providers.Registry, "remit_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, runs, "one series per outcome")

	records, err := testutil.GatherAndCount(providers.Registry, "remit_records_total")
	require.NoError(t, err)
	assert.Equal(t, 1, records)

	failures, err := testutil.GatherAndCount(providers.Registry, "remit_persistence_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var metrics *PipelineMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordRun(ctx, "processed", 1)
		metrics.RecordStage(ctx, "normalize", time.Second, errors.New("x"))
		metrics.RecordPersistenceFailure(ctx, "metadata")
	})
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remitcli.prom")
	providers := newTestProviders(t, path)
	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordRun(context.Background(), "processed", 3)

	require.NoError(t, providers.WriteMetrics())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "remit_runs_total")
	assert.Contains(t, string(content), `outcome="processed"`)
}

func TestWriteMetrics_NoFileConfigured(t *testing.T) {
	providers := newTestProviders(t, "")

	assert.NoError(t, providers.WriteMetrics())
}

func TestProcessMetrics_Collect(t *testing.T) {
	providers := newTestProviders(t, "")
	pm, err := NewProcessMetrics(providers.Meter)
	require.NoError(t, err)

	stats := pm.Collect(context.Background())

	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.HeapAlloc)
	assert.GreaterOrEqual(t, stats.TotalAlloc, stats.HeapAlloc)

	count, err := testutil.GatherAndCount(providers.Registry, "remit_process_goroutines")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

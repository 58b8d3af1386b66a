package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ProcessMetrics records a snapshot of the Go runtime next to the pipeline
// counters, so a metrics textfile also shows what a batch cost.
type ProcessMetrics struct {
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	gcCount    metric.Int64Gauge
	uptime     metric.Float64Gauge
	startedAt  time.Time
}

// ProcessStats is one runtime snapshot.
type ProcessStats struct {
	Goroutines int64
	HeapAlloc  int64
	TotalAlloc int64
	GCCount    uint32
	Uptime     time.Duration
}

// NewProcessMetrics creates the runtime gauges on meter. Uptime is measured
// from the call.
func NewProcessMetrics(meter metric.Meter) (*ProcessMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"remit_process_goroutines",
		metric.WithDescription("Number of live goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"remit_process_heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"remit_process_total_alloc",
		metric.WithDescription("Cumulative bytes allocated"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"remit_process_gc_cycles",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge(
		"remit_process_uptime",
		metric.WithDescription("Time since the process metrics were created"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ProcessMetrics{
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		totalAlloc: totalAlloc,
		gcCount:    gcCount,
		uptime:     uptime,
		startedAt:  time.Now(),
	}, nil
}

// Collect reads the runtime statistics and records them.
func (pm *ProcessMetrics) Collect(ctx context.Context) ProcessStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := ProcessStats{
		Goroutines: int64(runtime.NumGoroutine()),
		HeapAlloc:  int64(mem.HeapAlloc),
		TotalAlloc: int64(mem.TotalAlloc),
		GCCount:    mem.NumGC,
		Uptime:     time.Since(pm.startedAt),
	}

	pm.goroutines.Record(ctx, stats.Goroutines)
	pm.heapAlloc.Record(ctx, stats.HeapAlloc)
	pm.totalAlloc.Record(ctx, stats.TotalAlloc)
	pm.gcCount.Record(ctx, int64(stats.GCCount))
	pm.uptime.Record(ctx, stats.Uptime.Seconds())

	return stats
}

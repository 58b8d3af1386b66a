package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"remitcli/internal/infrastructure"
	"remitcli/pkg/contracts/domain"
)

// Stage names used for spans and the stage duration metric.
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageWriteRaw  = "write_raw"
	StageNormalize = "normalize"
	StageWriteCln  = "write_cleaned"
	StageReadRaw   = "read_raw"
	StageRecord    = "record_metadata"
)

// RunTracer wraps a run and its stages in spans and records their metrics.
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a RunTracer. Both arguments may be nil.
func NewRunTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *RunTracer {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return &RunTracer{tracer: tracer, metrics: metrics}
}

// StartRun opens the span covering one run.
func (rt *RunTracer) StartRun(ctx context.Context, runID string, src domain.Source) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.source", src.String()),
			attribute.Bool("run.render", src.Render),
		),
	)
}

// FinishRun records the outcome of a run on its span and in the run counter.
func (rt *RunTracer) FinishRun(ctx context.Context, span trace.Span, result domain.RunResult, err error) {
	outcome := string(result.Status)
	if err != nil {
		outcome = "failed"
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetAttributes(
			attribute.String("run.status", outcome),
			attribute.Int("run.sections", result.Sections),
			attribute.Int("run.raw_rows", result.RawRows),
			attribute.Int("run.records", len(result.Records)),
		)
		if result.PersistenceErr != nil {
			span.AddEvent("persistence.failed", trace.WithAttributes(
				attribute.String("error", result.PersistenceErr.Error())))
		}
		span.SetStatus(codes.Ok, result.Message)
	}
	rt.metrics.RecordRun(ctx, outcome, len(result.Records))
}

// Stage runs fn inside a child span named after stage.
func (rt *RunTracer) Stage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx, span := rt.tracer.Start(ctx, "pipeline."+stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	rt.metrics.RecordStage(ctx, stage, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	return err
}

// PersistenceFailed counts a failed write to target ("storage" or "metadata").
func (rt *RunTracer) PersistenceFailed(ctx context.Context, target string) {
	rt.metrics.RecordPersistenceFailure(ctx, target)
}

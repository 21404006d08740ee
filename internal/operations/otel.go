package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"featurepipe/internal/infrastructure"
)

// TracerName is the instrumentation scope of operation spans
const TracerName = "featurepipe.operations"

// StageTracer wraps operation and step execution in spans and records the
// pipeline metrics
type StageTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStageTracer builds a tracer from initialized providers. A nil providers
// value yields a tracer on the global provider with no-op metrics.
func NewStageTracer(providers *infrastructure.OTelProviders) *StageTracer {
	if providers == nil {
		return &StageTracer{
			tracer:  otel.Tracer(TracerName),
			metrics: infrastructure.NoopPipelineMetrics(),
		}
	}
	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	metrics := providers.Metrics
	if metrics == nil {
		metrics = infrastructure.NoopPipelineMetrics()
	}
	return &StageTracer{tracer: tracer, metrics: metrics}
}

// TraceOperation opens the span covering a whole run
func (st *StageTracer) TraceOperation(ctx context.Context, state *OperationState, mode ExecutionMode, stepCount int) (context.Context, trace.Span) {
	rows := 0
	if state.Source != nil {
		rows = state.Source.NumRows()
	}
	ctx, span := st.tracer.Start(ctx, fmt.Sprintf("operation.%s", mode),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.String("operation.mode", string(mode)),
			attribute.Int("operation.step_count", stepCount),
			attribute.Int("source.rows", rows),
		),
	)
	st.metrics.RecordActiveRun(ctx, 1)
	return ctx, span
}

// EndOperation closes the run span
func (st *StageTracer) EndOperation(ctx context.Context, span trace.Span, mode ExecutionMode, err error) {
	st.metrics.RecordActiveRun(ctx, -1)
	st.metrics.RecordRun(ctx, string(mode), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "operation completed")
	}
	span.End()
}

// TraceStage opens a child span for one step
func (st *StageTracer) TraceStage(ctx context.Context, operationID string, step Step) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, fmt.Sprintf("stage.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("stage.id", step.ID()),
			attribute.String("stage.name", step.Name()),
		),
	)
}

// EndStage records the step outcome on its span and in the metrics
func (st *StageTracer) EndStage(ctx context.Context, span trace.Span, state *StepState, duration time.Duration, err error) {
	result := state.Result()
	st.metrics.RecordStage(ctx, state.ID, duration, result.Rows, result.Bytes, err)

	span.SetAttributes(
		attribute.String("stage.status", string(result.Status)),
		attribute.Float64("stage.duration_seconds", duration.Seconds()),
		attribute.Int("stage.rows", result.Rows),
		attribute.Int("stage.columns", result.Columns),
	)
	if result.OutputPath != "" {
		infrastructure.AddSpanEvent(ctx, "stage.output_written",
			attribute.String("path", result.OutputPath),
			attribute.Int64("bytes", result.Bytes))
	}
	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(
			attribute.String("error.type", string(GetErrorType(err)))))
	} else {
		span.SetStatus(codes.Ok, "stage completed")
	}
	span.End()
}

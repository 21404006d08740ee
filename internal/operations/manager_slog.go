package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logOperationStart(ctx context.Context, state *OperationState, steps []Step) {
	rows, cols := 0, 0
	if state.Source != nil {
		rows, cols = state.Source.NumRows(), state.Source.NumColumns()
	}
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", state.ID),
		slog.String("mode", string(m.config.ExecutionMode)),
		slog.Int("step_count", len(steps)),
		slog.Int("rows", rows),
		slog.Int("columns", cols))
}

func (m *Manager) logOperationComplete(ctx context.Context, state *OperationState) {
	m.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", state.ID),
		slog.String("status", string(state.GetStatus())),
		slog.Int("failed_steps", len(state.GetFailedStages())),
		slog.Duration("duration", state.Duration()))
}

func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.InfoContext(ctx, "stage_start",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

func (m *Manager) logStageComplete(ctx context.Context, operationID string, result StepResult) {
	m.logger.InfoContext(ctx, "stage_complete",
		slog.String("operation_id", operationID),
		slog.String("step", result.ID),
		slog.Int("rows", result.Rows),
		slog.Int("columns", result.Columns),
		slog.String("output", result.OutputPath),
		slog.Duration("duration", result.Duration))
}

func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error, duration time.Duration) {
	m.logger.ErrorContext(ctx, "stage_error",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()),
		slog.Duration("duration", duration))
}

func (m *Manager) logStageSkipped(ctx context.Context, operationID, stageID, reason string) {
	m.logger.WarnContext(ctx, "stage_skipped",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("reason", reason))
}

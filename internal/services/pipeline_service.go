package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"featurepipe/internal/features"
	"featurepipe/internal/infrastructure"
	"featurepipe/internal/operations"
	"featurepipe/pkg/contracts/domain"
)

// StageInfo describes a registered feature stage
type StageInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Output      string `json:"output"`
	Description string `json:"description"`
}

// RunRequest selects the stages and execution mode of an in-memory run.
// Empty Stages runs all of them; empty Mode uses the service default.
type RunRequest struct {
	Stages []string
	Mode   operations.ExecutionMode
}

// RunResult pairs the operation report with the tables of successful stages
type RunResult struct {
	Operation *operations.OperationResponse
	Outputs   map[string]*domain.Table
}

// PipelineService runs feature stages over uploaded tables. Every call gets
// its own registry and sink so concurrent requests never share results.
type PipelineService struct {
	stages []features.Stage
	config operations.Config
	tracer *operations.StageTracer
	logger *slog.Logger
}

// NewPipelineService creates a service over stages. cfg supplies timeouts,
// concurrency and the default mode; providers may be nil.
func NewPipelineService(stages []features.Stage, cfg *operations.Config, providers *infrastructure.OTelProviders, logger *slog.Logger) *PipelineService {
	if cfg == nil {
		cfg = operations.NewConfig()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &PipelineService{
		stages: stages,
		config: *cfg,
		tracer: operations.NewStageTracer(providers),
		logger: infrastructure.WithComponent(logger, "pipeline_service"),
	}
}

// Stages lists the available stages in pipeline order
func (s *PipelineService) Stages() []StageInfo {
	out := make([]StageInfo, 0, len(s.stages))
	for _, st := range s.stages {
		out = append(out, StageInfo{ID: st.ID, Name: st.Name, Output: st.Output, Description: st.Description})
	}
	return out
}

// HasStage reports whether id names a registered stage
func (s *PipelineService) HasStage(id string) bool {
	_, ok := features.Lookup(s.stages, id)
	return ok
}

// RunStage applies one stage to source and returns the augmented table.
// Transform failures come back unwrapped from the operation envelope so
// callers can classify them.
func (s *PipelineService) RunStage(ctx context.Context, stageID string, source *domain.Table) (*domain.Table, error) {
	if !s.HasStage(stageID) {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, stageID)
	}
	result, err := s.Run(ctx, RunRequest{Stages: []string{stageID}}, source)
	if err != nil {
		return nil, unwrapStepError(err)
	}
	table, ok := result.Outputs[stageID]
	if !ok {
		return nil, ErrNoOutput
	}
	return table, nil
}

// Run executes the requested stages over source in memory. A failed stage
// does not stop the others; its error is joined into the returned error and
// result.Operation still reports every stage.
func (s *PipelineService) Run(ctx context.Context, req RunRequest, source *domain.Table) (*RunResult, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	for _, id := range req.Stages {
		if !s.HasStage(id) {
			return nil, fmt.Errorf("%w: %s", ErrStageNotFound, id)
		}
	}

	cfg := s.config
	if req.Mode != "" {
		cfg.ExecutionMode = req.Mode
	}

	sink := operations.NewMemorySink()
	registry := operations.NewRegistry()
	if err := operations.RegisterStages(registry, s.stages, sink); err != nil {
		return nil, err
	}
	manager := operations.NewManager(registry, &cfg,
		operations.WithTracer(s.tracer),
		operations.WithLogger(s.logger),
	)

	resp, err := manager.Execute(ctx, operations.OperationRequest{Steps: req.Stages}, source)
	result := &RunResult{Operation: resp, Outputs: make(map[string]*domain.Table)}
	if resp != nil {
		for _, step := range resp.Steps {
			if step.Status != operations.StepStatusCompleted {
				continue
			}
			if table, ok := sink.Table(step.ID); ok {
				result.Outputs[step.ID] = table
			}
		}
	}
	return result, err
}

// unwrapStepError strips the operation wrapper of a single-stage failure
func unwrapStepError(err error) error {
	var opErr *operations.OperationError
	if errors.As(err, &opErr) && opErr.Cause != nil {
		return opErr.Cause
	}
	return err
}

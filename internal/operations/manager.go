package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"featurepipe/internal/infrastructure"
	"featurepipe/pkg/contracts/domain"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *StageTracer
	logger   *slog.Logger

	mu         sync.RWMutex
	operations map[string]*OperationState
}

// ManagerOption customizes a Manager
type ManagerOption func(*Manager)

// WithTracer sets the span and metric recorder
func WithTracer(tracer *StageTracer) ManagerOption {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// WithLogger sets the logger used for operation events
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new operation manager
func NewManager(registry *Registry, config *Config, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	m := &Manager{
		registry:   registry,
		config:     config,
		tracer:     NewStageTracer(nil),
		logger:     infrastructure.WithComponent(infrastructure.GetLogger(), "operations"),
		operations: make(map[string]*OperationState),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs the requested steps over source. Every selected step runs
// even when another fails unless ContinueOnError is off; the returned error
// joins the failures of all steps and the response reports each step.
func (m *Manager) Execute(ctx context.Context, req OperationRequest, source *domain.Table) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = "op-" + uuid.NewString()
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	state := NewOperationState(req.ID, source)
	if req.SourceFile != "" {
		state.SetContext(ContextKeySourceFile, req.SourceFile)
	}
	for k, v := range req.Parameters {
		state.SetContext(k, v)
	}

	if source == nil {
		err := NewValidationError("", "source table is required")
		state.Fail(err)
		return state.Response(), err
	}
	state.SetContext(ContextKeySourceRows, source.NumRows())

	steps, err := m.registry.Select(req.Steps)
	if err != nil {
		m.logger.ErrorContext(ctx, "operation_error",
			slog.String("operation_id", req.ID),
			slog.String("error", err.Error()))
		state.Fail(err)
		return state.Response(), err
	}
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	ctx, span := m.tracer.TraceOperation(ctx, state, m.config.ExecutionMode, len(steps))
	m.logOperationStart(ctx, state, steps)
	state.Start()

	if m.config.ExecutionMode == ExecutionModeParallel {
		err = m.executeParallel(ctx, state, steps)
	} else {
		err = m.executeSequential(ctx, state, steps)
	}

	switch {
	case ctx.Err() != nil:
		state.Cancel(err)
	case err != nil:
		state.Fail(err)
	default:
		state.Complete()
	}
	m.tracer.EndOperation(ctx, span, m.config.ExecutionMode, err)
	m.logOperationComplete(ctx, state)

	return state.Response(), err
}

// executeSequential executes steps one by one in dependency order
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var errs []error
	for i, step := range steps {
		if ctx.Err() != nil {
			m.skipPending(ctx, state, steps[i:], "operation cancelled")
			errs = append(errs, NewCancellationError(step.ID()))
			break
		}
		if reason, blocked := m.blockedBy(state, step); blocked {
			state.GetStage(step.ID()).Skip(reason)
			m.logStageSkipped(ctx, state.ID, step.ID(), reason)
			continue
		}
		if err := m.executeStage(ctx, state, step); err != nil {
			errs = append(errs, err)
			if !m.config.ContinueOnError {
				m.skipPending(ctx, state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// executeParallel runs independent steps concurrently, at most
// MaxConcurrency at a time. Steps with dependencies force a sequential run.
func (m *Manager) executeParallel(ctx context.Context, state *OperationState, steps []Step) error {
	for _, step := range steps {
		if len(step.GetDependencies()) > 0 {
			m.logger.WarnContext(ctx, "parallel_fallback_sequential",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return m.executeSequential(ctx, state, steps)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.config.MaxConcurrency))

	var mu sync.Mutex
	var errs []error
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, step := range steps {
		g.Go(func() error {
			if gctx.Err() != nil {
				reason := "a sibling step failed"
				if ctx.Err() != nil {
					reason = "operation cancelled"
					record(NewCancellationError(step.ID()))
				}
				state.GetStage(step.ID()).Skip(reason)
				m.logStageSkipped(ctx, state.ID, step.ID(), reason)
				return nil
			}
			if err := m.executeStage(gctx, state, step); err != nil {
				record(err)
				if !m.config.ContinueOnError {
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// executeStage runs one step under its timeout and records the outcome
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("no state for step %s", step.ID()), nil)
	}

	m.logStageStart(ctx, state.ID, step.ID())
	ctx, span := m.tracer.TraceStage(ctx, state.ID, step)
	stepState.Start()
	start := time.Now()

	fail := func(err error) error {
		duration := time.Since(start)
		stepState.Fail(err)
		m.logStageError(ctx, state.ID, step.ID(), err, duration)
		m.tracer.EndStage(ctx, span, stepState, duration, err)
		return err
	}

	if err := step.Validate(state); err != nil {
		return fail(NewValidationError(step.ID(), err.Error()))
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := step.Execute(stageCtx, state); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			err = NewTimeoutError(step.ID(), timeout.String())
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			err = NewCancellationError(step.ID())
		default:
			err = WrapError(err, step.ID())
		}
		return fail(err)
	}

	stepState.Complete()
	m.tracer.EndStage(ctx, span, stepState, time.Since(start), nil)
	m.logStageComplete(ctx, state.ID, stepState.Result())
	return nil
}

// blockedBy reports whether a dependency of step did not complete
func (m *Manager) blockedBy(state *OperationState, step Step) (string, bool) {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil || depState.GetStatus() != StepStatusCompleted {
			return fmt.Sprintf("dependency %s not completed", dep), true
		}
	}
	return "", false
}

func (m *Manager) skipPending(ctx context.Context, state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
			m.logStageSkipped(ctx, state.ID, step.ID(), reason)
		}
	}
}

// GetOperation snapshots a running operation
func (m *Manager) GetOperation(id string) (*OperationResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, &OperationError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("operation %s not found", id)}
	}
	return state.Response(), nil
}

// ActiveOperations returns the ids of running operations
func (m *Manager) ActiveOperations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.operations))
	for id := range m.operations {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}

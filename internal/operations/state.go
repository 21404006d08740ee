package operations

import (
	"sync"
	"time"

	"featurepipe/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the runtime state of one operation. Source is shared
// read-only by every step.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatusValue
	StartTime time.Time
	EndTime   *time.Time
	Source    *domain.Table

	Steps   map[string]*StepState
	order   []string
	Context map[string]any
	Error   error
}

// NewOperationState creates a new operation state over source
func NewOperationState(id string, source *domain.Table) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Source:    source,
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]any),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.finish(OperationStatusCompleted, nil)
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.finish(OperationStatusFailed, err)
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.finish(OperationStatusCancelled, err)
}

func (p *OperationState) finish(status OperationStatusValue, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = status
	p.Error = err
}

// GetStatus returns the operation status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage adds or replaces the state of a Step, keeping first-seen order
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.Steps[stageID]; !exists {
		p.order = append(p.order, stageID)
	}
	p.Steps[stageID] = state
}

// GetContext retrieves a value from the operation context
func (p *OperationState) GetContext(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (p *OperationState) SetContext(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any Step has failed
func (p *OperationState) HasFailures() bool {
	return len(p.stepsWithStatus(StepStatusFailed)) > 0
}

// GetCompletedStages returns completed steps in execution order
func (p *OperationState) GetCompletedStages() []*StepState {
	return p.stepsWithStatus(StepStatusCompleted)
}

// GetFailedStages returns failed steps in execution order
func (p *OperationState) GetFailedStages() []*StepState {
	return p.stepsWithStatus(StepStatusFailed)
}

func (p *OperationState) stepsWithStatus(status StepStatus) []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*StepState
	for _, id := range p.order {
		if s := p.Steps[id]; s.GetStatus() == status {
			out = append(out, s)
		}
	}
	return out
}

// Response snapshots the state for callers
func (p *OperationState) Response() *OperationResponse {
	p.mu.RLock()
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	resp := &OperationResponse{
		ID:     p.ID,
		Status: p.Status,
		Steps:  make([]StepResult, 0, len(ids)),
	}
	if p.Error != nil {
		resp.Error = p.Error.Error()
	}
	steps := make([]*StepState, len(ids))
	for i, id := range ids {
		steps[i] = p.Steps[id]
	}
	p.mu.RUnlock()

	resp.Duration = p.Duration()
	for _, s := range steps {
		resp.Steps = append(resp.Steps, s.Result())
	}
	return resp
}

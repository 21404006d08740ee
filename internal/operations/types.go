package operations

import (
	"time"
)

// Context keys for operation state
const (
	ContextKeySourceFile = "source_file"
	ContextKeySourceRows = "source_rows"
)

// Step metadata keys recorded by TransformStep
const (
	MetaRows       = "rows"
	MetaColumns    = "columns"
	MetaOutputPath = "output_path"
	MetaBytes      = "bytes"
)

// DefaultStageTimeout bounds a single step when no per-step timeout is set
const DefaultStageTimeout = 5 * time.Minute

// ExecutionMode defines how steps are executed
type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// OperationRequest asks the manager to run steps over one source table.
// An empty Steps list runs every registered step.
type OperationRequest struct {
	ID         string         `json:"id"`
	Steps      []string       `json:"steps,omitempty"`
	SourceFile string         `json:"source_file,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// StepResult summarizes one step of a finished operation
type StepResult struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     StepStatus    `json:"status"`
	Duration   time.Duration `json:"duration"`
	Rows       int           `json:"rows,omitempty"`
	Columns    int           `json:"columns,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	Bytes      int64         `json:"bytes,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// OperationResponse represents the response from an operation execution.
// Steps follow execution order.
type OperationResponse struct {
	ID       string               `json:"id"`
	Status   OperationStatusValue `json:"status"`
	Duration time.Duration        `json:"duration"`
	Steps    []StepResult         `json:"steps"`
	Error    string               `json:"error,omitempty"`
}

// Failed returns the results of failed steps
func (r *OperationResponse) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StepStatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

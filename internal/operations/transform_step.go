package operations

import (
	"context"
	"fmt"
	"sync"

	"featurepipe/internal/exporter"
	"featurepipe/internal/features"
	"featurepipe/pkg/contracts/domain"
)

// Sink persists the table a stage produced
type Sink interface {
	Save(ctx context.Context, stage features.Stage, table *domain.Table) (path string, bytes int64, err error)
}

// TransformStep adapts a feature stage to the Step interface. It applies the
// stage to the operation's source table and hands the result to its sink.
type TransformStep struct {
	BaseStage
	stage features.Stage
	sink  Sink
}

// NewTransformStep wraps stage; a nil sink discards the result
func NewTransformStep(stage features.Stage, sink Sink) *TransformStep {
	return &TransformStep{
		BaseStage: NewBaseStage(stage.ID, stage.Name, nil),
		stage:     stage,
		sink:      sink,
	}
}

// Stage returns the wrapped feature stage
func (s *TransformStep) Stage() features.Stage {
	return s.stage
}

// Validate requires a source table
func (s *TransformStep) Validate(state *OperationState) error {
	if state == nil || state.Source == nil {
		return fmt.Errorf("no source table")
	}
	if s.stage.Apply == nil {
		return fmt.Errorf("stage %s has no transform", s.stage.ID)
	}
	return nil
}

type transformOutcome struct {
	table *domain.Table
	err   error
}

// Execute applies the stage. The transform itself cannot be interrupted, so
// on cancellation its result is dropped once it finishes.
func (s *TransformStep) Execute(ctx context.Context, state *OperationState) error {
	done := make(chan transformOutcome, 1)
	go func() {
		table, err := s.stage.Apply(state.Source)
		done <- transformOutcome{table: table, err: err}
	}()

	var out transformOutcome
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return out.err
	}

	stepState := state.GetStage(s.ID())
	if stepState != nil {
		stepState.SetMetadata(MetaRows, out.table.NumRows())
		stepState.SetMetadata(MetaColumns, out.table.NumColumns())
	}
	if s.sink == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, n, err := s.sink.Save(ctx, s.stage, out.table)
	if err != nil {
		return err
	}
	if stepState != nil {
		stepState.SetMetadata(MetaOutputPath, path)
		stepState.SetMetadata(MetaBytes, n)
	}
	return nil
}

// RegisterStages wraps each stage in a TransformStep sharing sink
func RegisterStages(registry *Registry, stages []features.Stage, sink Sink) error {
	for _, stage := range stages {
		if err := registry.Register(NewTransformStep(stage, sink)); err != nil {
			return err
		}
	}
	return nil
}

// FileSink writes each stage result to its own CSV file
type FileSink struct {
	writer  *exporter.CSVWriter
	outputs map[string]string
}

// NewFileSink writes under writer's directory. outputs overrides the file
// name of a stage by id; other stages use their default Output.
func NewFileSink(writer *exporter.CSVWriter, outputs map[string]string) *FileSink {
	return &FileSink{writer: writer, outputs: outputs}
}

// FileName returns the output file name for stage
func (f *FileSink) FileName(stage features.Stage) string {
	if name, ok := f.outputs[stage.ID]; ok && name != "" {
		return name
	}
	if stage.Output != "" {
		return stage.Output
	}
	return stage.ID + ".csv"
}

// Save implements Sink
func (f *FileSink) Save(_ context.Context, stage features.Stage, table *domain.Table) (string, int64, error) {
	return f.writer.WriteTable(f.FileName(stage), table)
}

// MemorySink keeps stage results in memory, keyed by stage id
type MemorySink struct {
	mu     sync.RWMutex
	tables map[string]*domain.Table
}

// NewMemorySink creates an empty MemorySink
func NewMemorySink() *MemorySink {
	return &MemorySink{tables: make(map[string]*domain.Table)}
}

// Save implements Sink
func (s *MemorySink) Save(_ context.Context, stage features.Stage, table *domain.Table) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[stage.ID] = table
	return "", 0, nil
}

// Table returns the result stored for a stage id
func (s *MemorySink) Table(stageID string) (*domain.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[stageID]
	return t, ok
}

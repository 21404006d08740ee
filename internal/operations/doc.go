// Package operations runs feature stages as steps of an operation.
//
// A Manager selects steps from a Registry, runs them over one shared source
// table either sequentially or in parallel (bounded by MaxConcurrency) and
// reports each step's outcome. Steps are isolated: a failing step is
// recorded and the others still run, unless ContinueOnError is turned off.
//
// TransformStep adapts a features.Stage to the Step interface and hands its
// result to a Sink. FileSink writes one CSV per stage; MemorySink keeps
// results for callers that stream them elsewhere.
//
//	registry := operations.NewRegistry()
//	sink := operations.NewFileSink(exporter.NewCSVWriter(outDir, false), nil)
//	if err := operations.RegisterStages(registry, features.DefaultStages(nil), sink); err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.NewConfig())
//	resp, err := manager.Execute(ctx, operations.OperationRequest{}, table)
//
// Spans and pipeline metrics are recorded through a StageTracer; logging
// uses slog with snake_case event names (stage_start, stage_complete,
// stage_error).
package operations

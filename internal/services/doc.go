// Package services sits between the HTTP handlers and the operations
// manager. Handlers deal in requests and responses; services deal in tables.
//
// # Available Services
//
//   - PipelineService: runs one or more feature stages over an uploaded table
//   - HealthService: liveness, readiness and version information
//
// # Request Isolation
//
// PipelineService builds a fresh operations.Registry and MemorySink for each
// call, so concurrent requests share only the read-only stage definitions:
//
//	svc := services.NewPipelineService(features.DefaultStages(nil), opsCfg, providers, logger)
//	out, err := svc.RunStage(ctx, features.StageBin, table)
//
// # Error Handling
//
// RunStage returns transform failures as the *errors.AppError the stage
// produced, so errors.FromError maps them to 422 responses. Unknown stage
// ids wrap ErrStageNotFound.
package services

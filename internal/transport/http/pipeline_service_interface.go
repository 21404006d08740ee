package http

import (
	"context"

	"featurepipe/internal/services"
	"featurepipe/pkg/contracts/domain"
)

// PipelineServiceInterface is what the stage and pipeline handlers need
type PipelineServiceInterface interface {
	Stages() []services.StageInfo
	HasStage(id string) bool
	RunStage(ctx context.Context, stageID string, source *domain.Table) (*domain.Table, error)
	Run(ctx context.Context, req services.RunRequest, source *domain.Table) (*services.RunResult, error)
}

// HealthServiceInterface is what the health handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

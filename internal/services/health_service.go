package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"featurepipe/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	stages    func() []StageInfo
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. pipeline may be nil, in which
// case readiness reports the pipeline as unavailable.
func NewHealthService(version string, pipeline *PipelineService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	hs := &HealthService{
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
	if pipeline != nil {
		hs.stages = pipeline.Stages
	}
	return hs
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := hs.ReadinessCheck(ctx)
	if status.Status == "ready" {
		status.Status = "ok"
	} else {
		status.Status = "degraded"
	}
	status.Runtime = hs.runtimeInfo()
	return status
}

// ReadinessCheck reports whether the pipeline can serve requests
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	pipeline := hs.checkPipelineHealth()
	status := HealthStatus{
		Status:    "ready",
		Timestamp: hs.now(),
		Version:   hs.version,
		Services:  map[string]interface{}{"pipeline": pipeline},
	}
	if pipeline.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness_check_failed", slog.String("reason", pipeline.Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime:   hs.runtimeInfo(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":     hs.version,
		"api_version": contracts.APIVersion,
		"build_time":  contracts.BuildTime,
		"git_commit":  contracts.GitCommit,
		"go_version":  runtime.Version(),
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
		"start_time":  hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) runtimeInfo() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": hs.now().Sub(hs.startTime).Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}
}

func (hs *HealthService) checkPipelineHealth() ServiceHealth {
	if hs.stages == nil {
		return ServiceHealth{Status: "unavailable", Message: "pipeline service not configured"}
	}
	if len(hs.stages()) == 0 {
		return ServiceHealth{Status: "unavailable", Message: "no stages registered"}
	}
	return ServiceHealth{Status: "ready"}
}

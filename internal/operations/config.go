package operations

import (
	"time"

	"featurepipe/internal/config"
)

// Config represents the operation execution configuration
type Config struct {
	ExecutionMode ExecutionMode `json:"execution_mode"`

	// StageTimeouts overrides DefaultTimeout per step
	StageTimeouts  map[string]time.Duration `json:"stage_timeouts"`
	DefaultTimeout time.Duration            `json:"default_timeout"`

	// ContinueOnError keeps running the remaining steps after a failure.
	// Steps never read each other's output, so this is the default.
	ContinueOnError bool `json:"continue_on_error"`

	// MaxConcurrency caps parallel steps
	MaxConcurrency int `json:"max_concurrency"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{
		ExecutionMode:   ExecutionModeSequential,
		StageTimeouts:   make(map[string]time.Duration),
		DefaultTimeout:  DefaultStageTimeout,
		ContinueOnError: true,
		MaxConcurrency:  4,
	}
}

// ConfigFromPipeline maps the pipeline section of the application config
func ConfigFromPipeline(p config.PipelineConfig) *Config {
	cfg := NewConfig()
	if p.ExecutionMode != "" {
		cfg.ExecutionMode = ExecutionMode(p.ExecutionMode)
	}
	if p.StageTimeout > 0 {
		cfg.DefaultTimeout = p.StageTimeout
	}
	if p.MaxConcurrency > 0 {
		cfg.MaxConcurrency = p.MaxConcurrency
	}
	return cfg
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

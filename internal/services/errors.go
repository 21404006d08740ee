package services

import "errors"

// Pipeline service errors
var (
	ErrStageNotFound = errors.New("stage not found")
	ErrNoSource      = errors.New("source table is required")
	ErrNoOutput      = errors.New("stage produced no output")
)

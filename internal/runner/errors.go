package runner

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrLoopFailed    = errors.ErrLoopFailed
	ErrLoopPanicked  = errors.ErrorCode("runner_loop_panicked")
	ErrInvalidPolicy = errors.ErrInvalidPolicy
	ErrWriteReport   = errors.ErrorCode("runner_write_report_failed")
)

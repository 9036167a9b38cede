package tabular

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrWrite       = errors.ErrWriteFailed
	ErrRead        = errors.ErrReadFailed
	ErrParseField  = errors.ErrorCode("tabular_parse_field_failed")
	ErrInvalidMode = errors.ErrInvalidWriteMode
)

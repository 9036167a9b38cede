package telemetry

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrRegister      = errors.ErrorCode("telemetry_register_failed")
	ErrWriteTextfile = errors.ErrorCode("telemetry_write_textfile_failed")
)

package sensor

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrUnavailable  = errors.ErrSensorUnavailable
	ErrCPUUsage     = errors.ErrorCode("sensor_cpu_usage_failed")
	ErrCPUFrequency = errors.ErrorCode("sensor_cpu_frequency_failed")
	ErrComponents   = errors.ErrorCode("sensor_components_failed")
	ErrNoBaseline   = errors.ErrorCode("sensor_no_baseline")
)

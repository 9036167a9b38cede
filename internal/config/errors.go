package config

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrInvalidConfig    = errors.ErrInvalidConfig
	ErrBindFlags        = errors.ErrBindFlags
	ErrReadConfig       = errors.ErrReadConfig
	ErrInvalidInterval  = errors.ErrInvalidInterval
	ErrInvalidDuration  = errors.ErrInvalidDuration
	ErrInvalidWriteMode = errors.ErrInvalidWriteMode
	ErrInvalidPolicy    = errors.ErrInvalidPolicy
	ErrInvalidLogLevel  = errors.ErrInvalidLogLevel
	ErrInvalidLogStyle  = errors.ErrInvalidLogStyle
	ErrInvalidLoad      = errors.ErrInvalidLoad
	ErrInvalidCore      = errors.ErrInvalidCore
)

// IsConfigError reports whether err was raised while resolving configuration
func IsConfigError(err error) bool {
	code, ok := errors.CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrInvalidConfig, ErrBindFlags, ErrReadConfig, ErrInvalidInterval,
		ErrInvalidDuration, ErrInvalidWriteMode, ErrInvalidPolicy,
		ErrInvalidLogLevel, ErrInvalidLogStyle, ErrInvalidLoad, ErrInvalidCore:
		return true
	}
	return false
}

package load

import "codeberg.org/mutker/cpumon/internal/errors"

const (
	ErrInvalidLoad    = errors.ErrInvalidLoad
	ErrInvalidCore    = errors.ErrInvalidCore
	ErrInvalidProfile = errors.ErrInvalidProfile
	ErrReadProfile    = errors.ErrReadFailed
)

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrWriteFailed)
	assert.Equal(t, "Failed to write samples", err.Error())
	assert.Equal(t, errors.ErrWriteFailed, err.Code())

	cause := stderrors.New("permission denied")
	err = errFactory.Wrap(errors.ErrWriteFailed, cause)
	assert.Equal(t, "Failed to write samples: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)

	err = errFactory.WithData(errors.ErrLoopFailed, []string{"cpu"})
	assert.Equal(t, "Sampling loop failed: [cpu]", err.Error())
	assert.Equal(t, []string{"cpu"}, err.GetData())

	assert.Equal(t, "custom", err.WithMessage("custom").Error()[:6])
}

func TestUnknownCodeMessage(t *testing.T) {
	assert.Equal(t, "no_such_code", errors.GetErrorMessage("no_such_code"))
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()

	inner := errFactory.Wrap(errors.ErrWriteFailed, stderrors.New("disk full"))
	outer := errFactory.Wrap(errors.ErrLoopFailed, fmt.Errorf("cpu: %w", inner))

	assert.True(t, errors.HasCode(outer, errors.ErrLoopFailed))
	assert.True(t, errors.HasCode(outer, errors.ErrWriteFailed))
	assert.False(t, errors.HasCode(outer, errors.ErrReadFailed))
	assert.False(t, errors.HasCode(nil, errors.ErrWriteFailed))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrWriteFailed))

	code, ok := errors.CodeOf(fmt.Errorf("wrapped: %w", inner))
	require.True(t, ok)
	assert.Equal(t, errors.ErrWriteFailed, code)
}

package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("optimize: %w", wrapError(ErrProviderFailed, "provider call failed", base))

	assert.Equal(t, ErrProviderFailed, KindOf(err))
	assert.True(t, IsKind(err, ErrProviderFailed))
	assert.False(t, IsKind(err, ErrProviderTimeout))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "optimize: [PROVIDER_FAILURE] provider call failed: connection reset", err.Error())

	assert.Equal(t, ErrorKind(""), KindOf(base))
	assert.False(t, IsKind(nil, ErrNotFound))
	assert.Equal(t, "[NOT_FOUND] job 4 not found", newError(ErrNotFound, "job %d not found", 4).Error())
}

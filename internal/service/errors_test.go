package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("merge: %w", ioFailure("write chunk failed", cause))

	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEntityNotFound)
	assert.Equal(t, "merge: write chunk failed: disk full", err.Error())

	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "write chunk failed", svcErr.Message)

	assert.ErrorIs(t, notFound("missing"), ErrEntityNotFound)
	assert.ErrorIs(t, invalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, mergeInProgress("U1"), ErrMergeInProgress)
	assert.Equal(t, "missing", notFound("missing").Error())
}

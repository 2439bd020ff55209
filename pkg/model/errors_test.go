package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrNotFound))
	assert.True(t, IsRecoverable(ErrConflict))
	assert.True(t, IsRecoverable(ErrInvalidInput))
	assert.True(t, IsRecoverable(fmt.Errorf("document 7: %w", ErrNotFound)))

	assert.False(t, IsRecoverable(ErrEmbedding))
	assert.False(t, IsRecoverable(errors.New("disk failure")))
	assert.False(t, IsRecoverable(nil))
}

func TestDimensionMismatchIsConflict(t *testing.T) {
	assert.ErrorIs(t, ErrDimensionMismatch, ErrConflict)
	assert.True(t, IsRecoverable(ErrDimensionMismatch))
}

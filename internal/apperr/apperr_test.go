package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"troop-cookies/internal/apperr"
)

func TestStoreWrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Store("insert order", cause)

	assert.True(t, apperr.IsStore(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert order")
}

func TestStoreKeepsClassifiedErrors(t *testing.T) {
	err := apperr.Store("get booth", fmt.Errorf("booth b1: %w", apperr.ErrNotFound))
	assert.False(t, apperr.IsStore(err))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = apperr.Store("verify", apperr.ErrAlreadyVerified)
	assert.Equal(t, apperr.ErrAlreadyVerified, err)

	assert.Nil(t, apperr.Store("noop", nil))
}

func TestClassification(t *testing.T) {
	v := fmt.Errorf("verify booth: %w", apperr.Validation("notes", "is required"))
	assert.True(t, apperr.IsValidation(v))
	assert.False(t, apperr.IsConfiguration(v))
	assert.EqualError(t, v, "verify booth: validation failed: notes is required")

	c := apperr.Configuration(2025, "no active variants")
	assert.True(t, apperr.IsConfiguration(c))
	assert.EqualError(t, c, "catalog configuration for 2025: no active variants")
}

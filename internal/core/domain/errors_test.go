package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrValidation", ErrValidation},
		{"ErrAuthentication", ErrAuthentication},
		{"ErrUpstreamUnavailable", ErrUpstreamUnavailable},
		{"ErrBatchLimitExceeded", ErrBatchLimitExceeded},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrSearchUnavailable", ErrSearchUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrBatchLimitExceeded_Message(t *testing.T) {
	assert.Equal(t, "max batches reached", ErrBatchLimitExceeded.Error())
}

func TestErrDimensionMismatch_IsValidation(t *testing.T) {
	assert.True(t, errors.Is(ErrDimensionMismatch, ErrValidation))
	assert.False(t, errors.Is(ErrDimensionMismatch, ErrNotFound))
}

func TestDimensionError(t *testing.T) {
	err := DimensionError(768, 3)

	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "want 768, got 3")
}

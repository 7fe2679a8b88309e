package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a referenced course or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input, such as a vector of the wrong dimension.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication indicates the embedding host rejected the configured credential.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrUpstreamUnavailable indicates the embedding host or index could not be reached,
	// answered with a 5xx, or does not expose the requested route.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrBatchLimitExceeded indicates batch generation stopped at the safety ceiling.
	ErrBatchLimitExceeded = errors.New("max batches reached")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the lexical index is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// ErrDimensionMismatch is a validation error for vectors whose length differs
// from the configured embedding dimension.
var ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrValidation)

// DimensionError returns an ErrDimensionMismatch annotated with both lengths.
func DimensionError(want, got int) error {
	return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, want, got)
}

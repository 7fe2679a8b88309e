package driven

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// EmbeddingStore persists EmbeddingRecords, one per (course, kind).
type EmbeddingStore interface {
	// Upsert writes the whole record atomically, replacing any existing
	// record for the same course and kind. Last writer wins.
	Upsert(ctx context.Context, record domain.EmbeddingRecord) error

	// Get retrieves the record for a course and kind.
	// Returns domain.ErrNotFound if none exists.
	Get(ctx context.Context, courseNumber string, kind domain.SourceKind) (*domain.EmbeddingRecord, error)

	// ListByKind returns every record of a kind.
	ListByKind(ctx context.Context, kind domain.SourceKind) ([]domain.EmbeddingRecord, error)

	// Delete removes the record for a course and kind.
	Delete(ctx context.Context, courseNumber string, kind domain.SourceKind) error
}

package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// EmbeddingService generates embeddings and reports their coverage.
type EmbeddingService interface {
	// Generate embeds up to req.Limit pending items of req.Kind.
	Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error)

	// Stats recomputes coverage from source content and stored embeddings.
	// Records older than staleBefore count as pending when it is non-zero.
	Stats(ctx context.Context, scope domain.SourceKind, staleBefore time.Time) (*domain.EmbeddingStats, error)
}

// BatchService drives generation until nothing is pending.
type BatchService interface {
	// Run generates page after page, reporting each batch to onProgress.
	// onProgress may be nil.
	Run(ctx context.Context, scope domain.SourceKind, force bool,
		onProgress func(domain.ProgressEvent)) (*domain.ProgressReport, error)

	// RunPages is Run with an explicit page size. A non-positive pageSize
	// selects the configured one.
	RunPages(ctx context.Context, scope domain.SourceKind, force bool, pageSize int,
		onProgress func(domain.ProgressEvent)) (*domain.ProgressReport, error)

	// State returns the current state of the tracker.
	State() domain.BatchState
}

package driven

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// VectorIndex provides semantic similarity search over stored embeddings.
type VectorIndex interface {
	// Search finds the k records of the given kind nearest to the query vector.
	Search(ctx context.Context, query []float32, kind domain.SourceKind, k int) ([]VectorHit, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// CourseNumber owns the matched record.
	CourseNumber string

	// Kind is the matched record's source kind.
	Kind domain.SourceKind

	// Similarity is the cosine similarity in [-1,1].
	Similarity float64

	// Text is the embedded source text.
	Text string
}

package driven

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// LexicalIndex provides full-text search over course source text.
type LexicalIndex interface {
	// Search performs a keyword search restricted to one source kind.
	Search(ctx context.Context, query string, kind domain.SourceKind, limit int) ([]LexicalHit, error)
}

// LexicalHit represents a keyword search result.
type LexicalHit struct {
	// CourseNumber is the course the matched text belongs to.
	CourseNumber string

	// Kind is the matched text's source kind.
	Kind domain.SourceKind

	// Score is the relevance normalised into [0,1].
	Score float64

	// Snippet is an excerpt around the match.
	Snippet string

	// Text is the full matched text.
	Text string
}

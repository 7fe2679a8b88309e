package driving

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// SearchService provides hybrid course search to external actors.
type SearchService interface {
	// Search embeds the query and runs hybrid retrieval for a kind or
	// domain.SourceKindAll. Without a query vector it ranks lexically.
	Search(ctx context.Context, query string, kind domain.SourceKind, limit int) ([]domain.SearchHit, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// ContextService assembles the evidence handed to a language model.
type ContextService interface {
	// BuildContext returns the ranked, alias-resolved evidence for a query.
	// A failed query embedding yields an empty bundle, not an error.
	BuildContext(ctx context.Context, query string) (domain.ContextBundle, error)

	// BuildContextN is BuildContext with an explicit course count.
	// A non-positive count selects the configured default.
	BuildContextN(ctx context.Context, query string, count int) (domain.ContextBundle, error)
}

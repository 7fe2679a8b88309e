package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// CatalogService manages the local course catalog.
type CatalogService interface {
	// Import loads courses, reviews and content from a JSON catalog document.
	Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error)

	// Get retrieves a course by primary or alias number.
	Get(ctx context.Context, number string) (*domain.Course, error)

	// List returns every course in the catalog.
	List(ctx context.Context) ([]domain.Course, error)
}

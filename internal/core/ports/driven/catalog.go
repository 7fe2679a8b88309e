package driven

import (
	"context"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// CourseStore persists catalog courses and their alias identities.
type CourseStore interface {
	// Save stores or updates a course together with its aliases.
	Save(ctx context.Context, course domain.Course) error

	// Get retrieves a course by primary or alias number.
	// Returns domain.ErrNotFound if neither matches.
	Get(ctx context.Context, number string) (*domain.Course, error)

	// Identity returns the canonical identity for a primary or alias number.
	// Returns domain.ErrNotFound for unknown numbers.
	Identity(ctx context.Context, number string) (domain.CourseIdentity, error)

	// ActiveSet returns the subset of numbers whose course is currently offered.
	// Alias numbers are judged by their course.
	ActiveSet(ctx context.Context, numbers []string) (map[string]bool, error)

	// List returns all courses.
	List(ctx context.Context) ([]domain.Course, error)
}

// ReviewStore persists student reviews.
type ReviewStore interface {
	// AddReview stores a review.
	AddReview(ctx context.Context, review domain.Review) error

	// RecentReviews returns up to limit publishable reviews for the given
	// course numbers, newest first.
	RecentReviews(ctx context.Context, courseNumbers []string, limit int) ([]domain.Review, error)
}

// ContentStore persists text extracted from uploaded course materials.
type ContentStore interface {
	// SaveContent stores or updates a content item.
	SaveContent(ctx context.Context, item domain.ContentItem) error
}

// SourceItemStore derives the current text to embed for each course and kind.
type SourceItemStore interface {
	// SourceItems returns one item per course that has text of the given kind.
	SourceItems(ctx context.Context, kind domain.SourceKind) ([]domain.SourceItem, error)
}

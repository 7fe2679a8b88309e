// Package memory provides in-memory implementations of the storage ports.
// They back tests and short-lived runs; nothing is persisted.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
)

// Ensure Catalog implements the interfaces.
var (
	_ driven.CourseStore     = (*Catalog)(nil)
	_ driven.ReviewStore     = (*Catalog)(nil)
	_ driven.ContentStore    = (*Catalog)(nil)
	_ driven.SourceItemStore = (*Catalog)(nil)
)

// Catalog is an in-memory course catalog with reviews and content.
type Catalog struct {
	mu      sync.RWMutex
	courses map[string]domain.Course
	aliases map[string]string // listing number -> primary number
	reviews []domain.Review
	content map[string]domain.ContentItem
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		courses: make(map[string]domain.Course),
		aliases: make(map[string]string),
		content: make(map[string]domain.ContentItem),
	}
}

// Save stores or updates a course and re-points its listing numbers.
func (c *Catalog) Save(_ context.Context, course domain.Course) error {
	id := course.Identity()
	course.Number = id.Primary
	course.Aliases = id.Aliases

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.courses[id.Primary]; ok {
		for _, a := range prev.Aliases {
			delete(c.aliases, a)
		}
	}
	c.courses[id.Primary] = course
	for _, n := range id.Numbers() {
		c.aliases[n] = id.Primary
	}
	return nil
}

// Get retrieves a course by primary or alias number.
func (c *Catalog) Get(_ context.Context, number string) (*domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	primary, ok := c.aliases[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	course := c.courses[primary]
	return &course, nil
}

// Identity returns the canonical identity for a listing number.
func (c *Catalog) Identity(ctx context.Context, number string) (domain.CourseIdentity, error) {
	course, err := c.Get(ctx, number)
	if err != nil {
		return domain.CourseIdentity{}, err
	}
	return course.Identity(), nil
}

// ActiveSet returns the numbers whose course is active.
func (c *Catalog) ActiveSet(_ context.Context, numbers []string) (map[string]bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		if primary, ok := c.aliases[n]; ok && c.courses[primary].Active {
			active[n] = true
		}
	}
	return active, nil
}

// List returns all courses ordered by number.
func (c *Catalog) List(_ context.Context) ([]domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// AddReview stores a review, replacing one with the same ID.
func (c *Catalog) AddReview(_ context.Context, review domain.Review) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.reviews {
		if c.reviews[i].ID == review.ID {
			c.reviews[i] = review
			return nil
		}
	}
	c.reviews = append(c.reviews, review)
	return nil
}

// RecentReviews returns up to limit publishable reviews, newest first.
func (c *Catalog) RecentReviews(_ context.Context, numbers []string, limit int) ([]domain.Review, error) {
	want := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Review
	for _, r := range c.reviews {
		if want[r.CourseNumber] && r.IsPublishable() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveContent stores or updates a content item.
func (c *Catalog) SaveContent(_ context.Context, item domain.ContentItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content[item.ID] = item
	return nil
}

// SourceItems derives the text to embed for every course with text of kind.
func (c *Catalog) SourceItems(_ context.Context, kind domain.SourceKind) ([]domain.SourceItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	parts := make(map[string][]string)
	switch kind {
	case domain.SourceKindDescription:
		for n, course := range c.courses {
			if text := domain.DescriptionText(&course); text != "" {
				parts[n] = []string{text}
			}
		}
	case domain.SourceKindReviews:
		reviews := make([]domain.Review, len(c.reviews))
		copy(reviews, c.reviews)
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
		for _, r := range reviews {
			if primary, ok := c.aliases[r.CourseNumber]; ok && r.IsPublishable() {
				parts[primary] = append(parts[primary], strings.TrimSpace(r.Text))
			}
		}
	case domain.SourceKindContent:
		items := make([]domain.ContentItem, 0, len(c.content))
		for _, it := range c.content {
			items = append(items, it)
		}
		sort.Slice(items, func(i, j int) bool {
			if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			}
			return items[i].ID < items[j].ID
		})
		for _, it := range items {
			if primary, ok := c.aliases[it.CourseNumber]; ok && strings.TrimSpace(it.Text) != "" {
				parts[primary] = append(parts[primary], strings.TrimSpace(it.Text))
			}
		}
	default:
		return nil, nil
	}

	out := make([]domain.SourceItem, 0, len(parts))
	for n, p := range parts {
		out = append(out, domain.NewSourceItem(n, kind, strings.Join(p, domain.SourceTextSeparator)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseNumber < out[j].CourseNumber })
	return out, nil
}

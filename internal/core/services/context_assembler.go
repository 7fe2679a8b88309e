package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/logger"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ContextService = (*ContextAssembler)(nil)

// Retrieval widths relative to the requested course count.
const (
	descriptionWidth = 5
	reviewsWidth     = 2
	contentWidth     = 1
)

// ContextAssembler builds the evidence bundle for a language model query.
type ContextAssembler struct {
	retriever        *HybridRetriever
	resolver         *IdentityResolver
	embeddingService driven.EmbeddingService
	courses          driven.CourseStore
	reviews          driven.ReviewStore
	settings         domain.ContextSettings
}

// NewContextAssembler creates a new assembler.
func NewContextAssembler(
	retriever *HybridRetriever,
	resolver *IdentityResolver,
	embeddingService driven.EmbeddingService,
	courses driven.CourseStore,
	reviews driven.ReviewStore,
	settings domain.ContextSettings,
) *ContextAssembler {
	return &ContextAssembler{
		retriever:        retriever,
		resolver:         resolver,
		embeddingService: embeddingService,
		courses:          courses,
		reviews:          reviews,
		settings:         settings,
	}
}

// BuildContext assembles context for the configured number of courses.
func (a *ContextAssembler) BuildContext(ctx context.Context, query string) (domain.ContextBundle, error) {
	return a.BuildContextN(ctx, query, a.settings.Count)
}

// BuildContextN retrieves descriptions, content and reviews for the query,
// anchors the supplementary hits to description matches, merges aliases and
// returns the top count courses with review excerpts and content snippets.
func (a *ContextAssembler) BuildContextN(ctx context.Context, query string, count int) (domain.ContextBundle, error) {
	logger.Section("Context Assembly")

	query = strings.TrimSpace(query)
	bundle := domain.EmptyContextBundle(query)
	if query == "" {
		return bundle, nil
	}

	if a.settings.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.settings.QueryTimeout)
		defer cancel()
	}

	if a.embeddingService == nil {
		logger.Warn("No embedding service configured, returning empty context")
		return bundle, nil
	}
	vector, err := a.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, returning empty context: %v", err)
		return bundle, nil
	}

	if count <= 0 {
		count = a.settings.Count
	}
	if count <= 0 {
		count = domain.DefaultRetrievalConfig().Context.Count
	}

	var descHits, contentHits, reviewHits []domain.SearchHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := a.retriever.Retrieve(gctx, query, vector, count*descriptionWidth, domain.SourceKindDescription)
		if err != nil {
			return fmt.Errorf("description retrieval: %w", err)
		}
		descHits = hits
		return nil
	})
	g.Go(func() error {
		contentHits = a.retrieveSupplement(gctx, query, vector, count*contentWidth, domain.SourceKindContent)
		return nil
	})
	g.Go(func() error {
		reviewHits = a.retrieveSupplement(gctx, query, vector, count*reviewsWidth, domain.SourceKindReviews)
		return nil
	})
	if err := g.Wait(); err != nil {
		return bundle, err
	}
	logger.Debug("Retrieved description=%d content=%d reviews=%d", len(descHits), len(contentHits), len(reviewHits))

	cache := newIdentityCache(a.courses)
	anchors := make(map[string]bool, len(descHits))
	for i := range descHits {
		id, _ := cache.lookup(ctx, descHits[i].CourseNumber)
		anchors[id.Primary] = true
	}

	reviewHits = anchor(ctx, cache, reviewHits, anchors)
	if a.settings.AnchorContent {
		contentHits = anchor(ctx, cache, contentHits, anchors)
	}
	logger.Debug("After anchoring: content=%d reviews=%d", len(contentHits), len(reviewHits))

	union := make([]domain.SearchHit, 0, len(descHits)+len(contentHits)+len(reviewHits))
	union = append(union, descHits...)
	union = append(union, contentHits...)
	union = append(union, reviewHits...)
	resolved := a.resolver.Resolve(ctx, union)

	selected := make(map[string]bool)
	var numbers []string
	for i := range resolved {
		if len(bundle.Classes) >= count {
			break
		}
		cc, ok := a.contextCourse(ctx, &resolved[i])
		if !ok {
			continue
		}
		bundle.Classes = append(bundle.Classes, cc)
		selected[cc.Number] = true
		numbers = append(numbers, cc.Number)
		numbers = append(numbers, cc.Aliases...)
	}
	if len(bundle.Classes) == 0 {
		return bundle, nil
	}

	bundle.Reviews, err = a.reviewExcerpts(ctx, cache, numbers, selected)
	if err != nil {
		return bundle, err
	}
	bundle.ContentSnippets = contentSnippets(ctx, cache, contentHits, selected, count)

	logger.Info("Context: %d courses, %d reviews, %d snippets",
		len(bundle.Classes), len(bundle.Reviews), len(bundle.ContentSnippets))
	return bundle, nil
}

// retrieveSupplement degrades to no hits when content or review retrieval fails.
func (a *ContextAssembler) retrieveSupplement(
	ctx context.Context, query string, vector []float32, limit int, kind domain.SourceKind,
) []domain.SearchHit {
	hits, err := a.retriever.Retrieve(ctx, query, vector, limit, kind)
	if err != nil {
		logger.Warn("%s retrieval failed, continuing without it: %v", kind, err)
		return nil
	}
	return hits
}

// anchor keeps only hits whose course, alias-resolved, is among the anchors.
func anchor(ctx context.Context, cache *identityCache, hits []domain.SearchHit, anchors map[string]bool) []domain.SearchHit {
	kept := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		id, _ := cache.lookup(ctx, h.CourseNumber)
		if anchors[id.Primary] {
			kept = append(kept, h)
		}
	}
	return kept
}

// contextCourse hydrates a resolved course from the catalog.
func (a *ContextAssembler) contextCourse(ctx context.Context, rc *domain.ResolvedCourse) (domain.ContextCourse, bool) {
	cc := domain.ContextCourse{
		Number:      rc.Number,
		Aliases:     rc.Aliases,
		WhyRelevant: rc.Explanation,
		Score:       rc.Score(),
	}
	if a.courses == nil {
		return cc, true
	}

	course, err := a.courses.Get(ctx, rc.Number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Course %s has evidence but no catalog entry, skipping", rc.Number)
		} else {
			logger.Warn("Loading course %s failed, skipping: %v", rc.Number, err)
		}
		return cc, false
	}

	cc.Aliases = mergeAliases(rc.Aliases, course.Aliases, rc.Number)
	cc.Department = course.Department
	cc.Title = course.Title
	cc.Description = course.Description
	cc.Units = course.Units
	cc.Instructors = course.Instructors
	cc.Prerequisites = course.Prerequisites
	cc.Corequisites = course.Corequisites
	return cc, true
}

// reviewExcerpts fetches recent publishable reviews for the selected courses
// and files each under its course's primary number.
func (a *ContextAssembler) reviewExcerpts(
	ctx context.Context, cache *identityCache, numbers []string, selected map[string]bool,
) ([]domain.ReviewExcerpt, error) {
	excerpts := []domain.ReviewExcerpt{}
	if a.reviews == nil || a.settings.ReviewExcerpts <= 0 {
		return excerpts, nil
	}

	reviews, err := a.reviews.RecentReviews(ctx, numbers, a.settings.ReviewExcerpts)
	if err != nil {
		return excerpts, fmt.Errorf("load review excerpts: %w", err)
	}

	for i := range reviews {
		r := &reviews[i]
		if !r.IsPublishable() {
			continue
		}
		id, _ := cache.lookup(ctx, r.CourseNumber)
		if !selected[id.Primary] {
			continue
		}
		excerpts = append(excerpts, domain.ReviewExcerpt{
			CourseNumber: id.Primary,
			Text:         strings.TrimSpace(r.Text),
			Rating:       r.Rating,
			CreatedAt:    r.CreatedAt,
		})
		if len(excerpts) >= a.settings.ReviewExcerpts {
			break
		}
	}
	return excerpts, nil
}

// contentSnippets returns up to limit content excerpts for selected courses.
func contentSnippets(
	ctx context.Context, cache *identityCache, hits []domain.SearchHit,
	selected map[string]bool, limit int,
) []domain.ContentSnippet {
	out := []domain.ContentSnippet{}
	for _, h := range hits {
		if len(out) >= limit {
			break
		}
		id, _ := cache.lookup(ctx, h.CourseNumber)
		if !selected[id.Primary] || h.Snippet == "" {
			continue
		}
		out = append(out, domain.ContentSnippet{
			CourseNumber: id.Primary,
			Snippet:      h.Snippet,
			Score:        h.Score,
		})
	}
	return out
}

func mergeAliases(seen, catalog []string, primary string) []string {
	id := domain.NewCourseIdentity(primary, append(append([]string{}, catalog...), seen...))
	return id.Aliases
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/core/similarity"
	"github.com/custodia-labs/courselens/internal/logger"
)

// Ensure HybridRetriever implements the interface.
var _ driving.SearchService = (*HybridRetriever)(nil)

// candidate holds intermediate signals for one course before fusion.
type candidate struct {
	number      string
	lexical     float64
	semantic    float64
	hasLexical  bool
	hasSemantic bool
	snippet     string
	text        string
}

// HybridRetriever fuses keyword and vector search per source kind.
type HybridRetriever struct {
	lexical          driven.LexicalIndex
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	courses          driven.CourseStore
	fusion           domain.FusionSettings
}

// NewHybridRetriever creates a new retriever.
// The vectorIndex and embeddingService parameters are optional (can be nil).
func NewHybridRetriever(
	lexical driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	courses driven.CourseStore,
	fusion domain.FusionSettings,
) *HybridRetriever {
	return &HybridRetriever{
		lexical:          lexical,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		courses:          courses,
		fusion:           fusion,
	}
}

// Search embeds the query once and retrieves for one kind or all kinds.
// A failed embedding falls back to keyword ranking.
func (r *HybridRetriever) Search(
	ctx context.Context, query string, kind domain.SourceKind, limit int,
) ([]domain.SearchHit, error) {
	logger.Section("Search Execution")
	if !kind.IsValidScope() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, kind)
	}

	vector := r.embedQuery(ctx, query)

	if kind != domain.SourceKindAll {
		return r.Retrieve(ctx, query, vector, limit, kind)
	}

	var merged []domain.SearchHit
	for _, k := range domain.AllSourceKinds() {
		hits, err := r.Retrieve(ctx, query, vector, limit, k)
		if err != nil {
			return nil, err
		}
		merged = append(merged, hits...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// embedQuery returns nil when no vector can be produced.
func (r *HybridRetriever) embedQuery(ctx context.Context, query string) []float32 {
	if r.embeddingService == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	vec, err := r.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, using keyword ranking only: %v", err)
		return nil
	}
	return vec
}

// Retrieve returns at most limit hits of one kind, highest fused score first.
// An empty or all-zero queryVector ranks by keyword score alone. Inactive
// courses are removed after scoring.
func (r *HybridRetriever) Retrieve(
	ctx context.Context, query string, queryVector []float32, limit int, kind domain.SourceKind,
) ([]domain.SearchHit, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, kind)
	}
	query = strings.TrimSpace(query)
	if similarity.IsZero(queryVector) {
		queryVector = nil
	}
	if limit <= 0 || (query == "" && len(queryVector) == 0) {
		return []domain.SearchHit{}, nil
	}

	// Request more results internally to account for filtering
	internalLimit := limit * 2
	logger.Debug("Retrieve kind=%s limit=%d internal=%d vector=%t", kind, limit, internalLimit, len(queryVector) > 0)

	candidates, err := r.gather(ctx, query, queryVector, internalLimit, kind)
	if err != nil {
		return nil, err
	}

	hits := r.fuse(candidates, kind)

	hits, err = r.filterActive(ctx, hits)
	if err != nil {
		return nil, err
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	logger.Debug("Retrieve kind=%s returned %d hits", kind, len(hits))
	return hits, nil
}

// gather runs keyword and vector search concurrently and merges their hits
// by course. Insertion order is keyword hits first, then vector-only hits.
func (r *HybridRetriever) gather(
	ctx context.Context, query string, queryVector []float32, limit int, kind domain.SourceKind,
) ([]*candidate, error) {
	var (
		wg         sync.WaitGroup
		lexHits    []driven.LexicalHit
		vecHits    []driven.VectorHit
		lexErr     error
		vecErr     error
		runLexical = r.lexical != nil && query != ""
		runVector  = r.vectorIndex != nil && len(queryVector) > 0
	)

	if !runLexical && !runVector {
		if r.lexical == nil {
			return nil, domain.ErrSearchUnavailable
		}
		return nil, nil
	}

	if runLexical {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lexHits, lexErr = r.lexical.Search(ctx, query, kind, limit)
		}()
	}
	if runVector {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vecHits, vecErr = r.vectorIndex.Search(ctx, queryVector, kind, limit)
		}()
	}
	wg.Wait()

	logger.Debug("Keyword: %d hits (err=%v), vector: %d hits (err=%v)", len(lexHits), lexErr, len(vecHits), vecErr)

	switch {
	case runLexical && runVector && lexErr != nil && vecErr != nil:
		return nil, fmt.Errorf("%w: keyword: %w; vector: %w", domain.ErrUpstreamUnavailable, lexErr, vecErr)
	case runLexical && !runVector && lexErr != nil:
		return nil, fmt.Errorf("keyword search: %w", lexErr)
	case runVector && !runLexical && vecErr != nil:
		return nil, fmt.Errorf("vector search: %w", vecErr)
	case lexErr != nil:
		logger.Warn("Keyword search failed, using vector results only: %v", lexErr)
	case vecErr != nil:
		logger.Warn("Vector search failed, using keyword results only: %v", vecErr)
	}

	byCourse := make(map[string]*candidate)
	var ordered []*candidate
	get := func(number string) *candidate {
		if c, ok := byCourse[number]; ok {
			return c
		}
		c := &candidate{number: number}
		byCourse[number] = c
		ordered = append(ordered, c)
		return c
	}

	for _, h := range lexHits {
		if h.Kind != kind {
			logger.Warn("Dropping keyword hit for %s with kind %q", h.CourseNumber, h.Kind)
			continue
		}
		c := get(h.CourseNumber)
		if !c.hasLexical || h.Score > c.lexical {
			c.hasLexical = true
			c.lexical = clamp01(h.Score)
			c.snippet = h.Snippet
			if h.Text != "" {
				c.text = h.Text
			}
		}
	}
	for _, h := range vecHits {
		if h.Kind != kind {
			logger.Warn("Dropping vector hit for %s with kind %q", h.CourseNumber, h.Kind)
			continue
		}
		c := get(h.CourseNumber)
		if !c.hasSemantic || h.Similarity > c.semantic {
			c.hasSemantic = true
			c.semantic = h.Similarity
		}
		if c.text == "" {
			c.text = h.Text
		}
	}

	return ordered, nil
}

// fuse computes the weighted score of each candidate and sorts them stably,
// so equal scores keep first-seen order.
func (r *HybridRetriever) fuse(candidates []*candidate, kind domain.SourceKind) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(candidates))
	for _, c := range candidates {
		snippet := c.snippet
		if snippet == "" {
			snippet = c.text
		}
		hit := domain.SearchHit{
			CourseNumber:  c.number,
			Score:         r.fusion.LexicalWeight*c.lexical + r.fusion.SemanticWeight*c.semantic,
			Kind:          kind,
			Snippet:       domain.TruncateSnippet(snippet),
			Text:          c.text,
			LexicalScore:  c.lexical,
			SemanticScore: c.semantic,
		}
		if err := hit.Validate(); err != nil {
			logger.Warn("Dropping malformed hit: %v", err)
			continue
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// filterActive removes hits for courses that are not currently offered.
func (r *HybridRetriever) filterActive(ctx context.Context, hits []domain.SearchHit) ([]domain.SearchHit, error) {
	if r.courses == nil || len(hits) == 0 {
		return hits, nil
	}

	numbers := make([]string, len(hits))
	for i := range hits {
		numbers[i] = hits[i].CourseNumber
	}
	active, err := r.courses.ActiveSet(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("check active courses: %w", err)
	}

	filtered := hits[:0]
	for _, h := range hits {
		if active[h.CourseNumber] {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

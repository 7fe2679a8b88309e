package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/logger"
)

// Ensure EmbeddingGenerator implements the interface.
var _ driving.EmbeddingService = (*EmbeddingGenerator)(nil)

// EmbeddingGenerator turns pending source items into stored embeddings.
type EmbeddingGenerator struct {
	items            driven.SourceItemStore
	store            driven.EmbeddingStore
	embeddingService driven.EmbeddingService
	model            string
	dimensions       int
	settings         domain.GenerationSettings
	pool             *ants.Pool
	now              func() time.Time
}

// NewEmbeddingGenerator creates a generator with a worker pool sized to
// settings.Concurrency. embeddingService may be nil, in which case Generate
// fails with domain.ErrEmbeddingUnavailable and Stats still works.
func NewEmbeddingGenerator(
	items driven.SourceItemStore,
	store driven.EmbeddingStore,
	embeddingService driven.EmbeddingService,
	cfg domain.RetrievalConfig,
) (*EmbeddingGenerator, error) {
	settings := cfg.Generation
	if settings.Concurrency <= 0 {
		settings.Concurrency = 1
	}

	pool, err := ants.NewPool(settings.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}

	return &EmbeddingGenerator{
		items:            items,
		store:            store,
		embeddingService: embeddingService,
		model:            cfg.Embedding.Model,
		dimensions:       cfg.Embedding.Dimensions,
		settings:         settings,
		pool:             pool,
		now:              time.Now,
	}, nil
}

// Close releases the worker pool.
func (g *EmbeddingGenerator) Close() {
	g.pool.Release()
}

// selection is the outcome of scanning one scope for work.
type selection struct {
	items   []domain.SourceItem
	records map[domain.SourceKind]map[string]*domain.EmbeddingRecord
	skipped int
}

// Generate embeds up to req.Limit items that have no current embedding, or,
// when req.Force is set, every item whose record predates req.ForceBefore.
// Per-item failures are counted and reported; they do not stop the batch.
func (g *EmbeddingGenerator) Generate(
	ctx context.Context, req domain.GenerateRequest,
) (*domain.GenerateResult, error) {
	logger.Section("Embedding Generation")

	if !req.Kind.IsValidScope() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, req.Kind)
	}
	if g.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if req.Limit <= 0 {
		req.Limit = g.settings.PageSize
	}
	if req.Force && req.ForceBefore.IsZero() {
		req.ForceBefore = g.now()
	}
	staleBefore := time.Time{}
	if req.Force {
		staleBefore = req.ForceBefore
	}

	sel, err := g.selectItems(ctx, req.Kind, req.Limit, staleBefore)
	if err != nil {
		return nil, err
	}
	logger.Debug("Selected %d items (kind=%s force=%t), skipped %d", len(sel.items), req.Kind, req.Force, sel.skipped)

	result := &domain.GenerateResult{Skipped: sel.skipped}
	if err := g.process(ctx, sel, result); err != nil {
		return result, err
	}

	stats, err := g.Stats(ctx, req.Kind, staleBefore)
	if err != nil {
		return result, err
	}
	result.Remaining = stats.Pending(req.Kind)

	logger.Info("Generated %d embeddings, %d failed, %d remaining", result.Processed, result.Failed, result.Remaining)

	if result.Processed == 0 && result.Failed > 0 {
		return result, fmt.Errorf("generate embeddings: %w", result.Failures[0].Err)
	}
	return result, nil
}

// selectItems scans every kind in scope for pending items. Selection uses the
// same freshness rule as Stats so a batch run always converges.
func (g *EmbeddingGenerator) selectItems(
	ctx context.Context, scope domain.SourceKind, limit int, staleBefore time.Time,
) (*selection, error) {
	sel := &selection{records: make(map[domain.SourceKind]map[string]*domain.EmbeddingRecord)}

	for _, kind := range scope.Expand() {
		items, records, err := g.load(ctx, kind)
		if err != nil {
			return nil, err
		}
		sel.records[kind] = records

		for _, item := range items {
			rec := records[item.CourseNumber]
			if item.IsCurrent(rec, g.model, staleBefore) {
				sel.skipped++
				continue
			}
			if len(sel.items) < limit {
				sel.items = append(sel.items, item)
			}
		}
	}
	return sel, nil
}

// load returns the source items of kind and their records keyed by course.
func (g *EmbeddingGenerator) load(
	ctx context.Context, kind domain.SourceKind,
) ([]domain.SourceItem, map[string]*domain.EmbeddingRecord, error) {
	items, err := g.items.SourceItems(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s source items: %w", kind, err)
	}
	list, err := g.store.ListByKind(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s embeddings: %w", kind, err)
	}
	records := make(map[string]*domain.EmbeddingRecord, len(list))
	for i := range list {
		records[list[i].CourseNumber] = &list[i]
	}
	return items, records, nil
}

// process embeds the selected items in chunks of Concurrency, pausing
// ChunkDelay between chunks.
func (g *EmbeddingGenerator) process(ctx context.Context, sel *selection, result *domain.GenerateResult) error {
	limit := rate.Inf
	if g.settings.ChunkDelay > 0 {
		limit = rate.Every(g.settings.ChunkDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var mu sync.Mutex
	chunk := g.settings.Concurrency

	for start := 0; start < len(sel.items); start += chunk {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("generate embeddings: %w", err)
		}

		end := min(start+chunk, len(sel.items))
		var wg sync.WaitGroup
		for _, item := range sel.items[start:end] {
			existing := sel.records[item.Kind][item.CourseNumber]
			wg.Add(1)
			task := func() {
				defer wg.Done()
				err := g.embedItem(ctx, item, existing)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.Warn("Embedding %s (%s) failed: %v", item.CourseNumber, item.Kind, err)
					result.Failed++
					result.Failures = append(result.Failures, domain.ItemFailure{
						CourseNumber: item.CourseNumber,
						Kind:         item.Kind,
						Err:          err,
					})
					return
				}
				result.Processed++
			}
			if err := g.pool.Submit(task); err != nil {
				wg.Done()
				wg.Wait()
				return fmt.Errorf("submit embedding task: %w", err)
			}
		}
		wg.Wait()
	}
	return nil
}

// embedItem embeds one item and writes its record in a single upsert.
func (g *EmbeddingGenerator) embedItem(ctx context.Context, item domain.SourceItem, existing *domain.EmbeddingRecord) error {
	vec, err := g.embeddingService.Embed(ctx, item.Text)
	if err != nil {
		return err
	}
	if len(vec) != g.dimensions {
		return domain.DimensionError(g.dimensions, len(vec))
	}

	id := uuid.NewString()
	if existing != nil && existing.ID != "" {
		id = existing.ID
	}

	return g.store.Upsert(ctx, domain.EmbeddingRecord{
		ID:           id,
		CourseNumber: item.CourseNumber,
		Kind:         item.Kind,
		SourceText:   item.Text,
		ContentHash:  item.ContentHash,
		Model:        g.model,
		Vector:       vec,
		UpdatedAt:    g.now(),
	})
}

// Stats recomputes coverage per kind. An item is embedded when its record
// matches the current text and model and is not older than staleBefore.
func (g *EmbeddingGenerator) Stats(
	ctx context.Context, scope domain.SourceKind, staleBefore time.Time,
) (*domain.EmbeddingStats, error) {
	if !scope.IsValidScope() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, scope)
	}

	stats := &domain.EmbeddingStats{}
	for _, kind := range scope.Expand() {
		items, records, err := g.load(ctx, kind)
		if err != nil {
			return nil, err
		}

		ks := domain.KindStats{Kind: kind, Total: len(items)}
		for _, item := range items {
			if item.IsCurrent(records[item.CourseNumber], g.model, staleBefore) {
				ks.Embedded++
			}
		}
		ks.Pending = ks.Total - ks.Embedded
		stats.Skipped += ks.Embedded
		stats.Kinds = append(stats.Kinds, ks)
	}
	return stats, nil
}

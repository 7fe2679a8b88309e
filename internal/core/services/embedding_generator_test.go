package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/courselens/internal/core/domain"
)

type generatorFixture struct {
	catalog  *memory.Catalog
	index    *memory.Index
	embedder *mockEmbeddingService
	gen      *EmbeddingGenerator
	clock    time.Time
}

func newGeneratorFixture(t *testing.T, courses ...domain.Course) *generatorFixture {
	t.Helper()
	cfg := domain.DefaultRetrievalConfig()
	cfg.Embedding.Model = "mock-embed"
	cfg.Embedding.Dimensions = 3
	cfg.Generation.Concurrency = 2
	cfg.Generation.ChunkDelay = 0

	f := &generatorFixture{
		catalog:  newCatalog(courses...),
		index:    memory.NewIndex(),
		embedder: &mockEmbeddingService{fallback: vec(1, 0, 0)},
		clock:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	gen, err := NewEmbeddingGenerator(f.catalog, f.index, f.embedder, cfg)
	require.NoError(t, err)
	gen.now = func() time.Time { return f.clock }
	t.Cleanup(gen.Close)
	f.gen = gen
	return f
}

func manyCourses(n int) []domain.Course {
	out := make([]domain.Course, n)
	for i := range out {
		out[i] = testCourse(fmt.Sprintf("C%03d", i))
	}
	return out
}

func TestEmbeddingGenerator_EmbedsPendingItems(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(7)...)
	ctx := context.Background()

	res, err := f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindDescription, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 7, res.Processed)
	assert.Zero(t, res.Failed)
	assert.Zero(t, res.Remaining)

	rec, err := f.index.Get(ctx, "C003", domain.SourceKindDescription)
	require.NoError(t, err)
	assert.Equal(t, "Course C003\n\nAbout C003", rec.SourceText)
	assert.Equal(t, domain.HashText(rec.SourceText), rec.ContentHash)
	assert.Equal(t, "mock-embed", rec.Model)
	assert.Len(t, rec.Vector, 3)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, f.clock, rec.UpdatedAt)
}

func TestEmbeddingGenerator_IsIdempotent(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(4)...)
	ctx := context.Background()
	req := domain.GenerateRequest{Kind: domain.SourceKindDescription, Limit: 10}

	first, err := f.gen.Generate(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 4, first.Processed)
	calls := f.embedder.Calls()

	second, err := f.gen.Generate(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Equal(t, 4, second.Skipped)
	assert.Equal(t, calls, f.embedder.Calls())
}

func TestEmbeddingGenerator_RespectsLimit(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(5)...)

	res, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription, Limit: 3})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Remaining)
}

func TestEmbeddingGenerator_ContentChangeMakesItemPending(t *testing.T) {
	course := testCourse("A")
	f := newGeneratorFixture(t, course)
	ctx := context.Background()
	req := domain.GenerateRequest{Kind: domain.SourceKindDescription}

	_, err := f.gen.Generate(ctx, req)
	require.NoError(t, err)

	course.Description = "Rewritten description"
	require.NoError(t, f.catalog.Save(ctx, course))

	stats, err := f.gen.Stats(ctx, domain.SourceKindDescription, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending(domain.SourceKindDescription))

	res, err := f.gen.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	list, err := f.index.ListByKind(ctx, domain.SourceKindDescription)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].SourceText, "Rewritten description")
}

func TestEmbeddingGenerator_ForceReembedsAndTerminates(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(3)...)
	ctx := context.Background()

	_, err := f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindDescription})
	require.NoError(t, err)
	before, err := f.index.Get(ctx, "C000", domain.SourceKindDescription)
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	forced, err := f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindDescription, Force: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, forced.Processed)
	assert.Equal(t, 1, forced.Remaining)

	again, err := f.gen.Generate(ctx, domain.GenerateRequest{
		Kind: domain.SourceKindDescription, Force: true, Limit: 2, ForceBefore: f.clock,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Processed)
	assert.Zero(t, again.Remaining)

	after, err := f.index.Get(ctx, "C000", domain.SourceKindDescription)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestEmbeddingGenerator_PerItemFailureDoesNotAbortBatch(t *testing.T) {
	f := newGeneratorFixture(t, testCourse("A"), testCourse("B"), testCourse("C"))
	f.embedder.errFor = map[string]error{"Course B\n\nAbout B": domain.ErrUpstreamUnavailable}

	res, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "B", res.Failures[0].CourseNumber)
	assert.ErrorIs(t, res.Failures[0].Err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 1, res.Remaining)
}

func TestEmbeddingGenerator_AllFailedSurfacesClassifiedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"authentication", fmt.Errorf("embed: %w", domain.ErrAuthentication)},
		{"upstream", fmt.Errorf("embed: %w", domain.ErrUpstreamUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGeneratorFixture(t, testCourse("A"), testCourse("B"))
			f.embedder.embedErr = tt.err

			res, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription})

			require.Error(t, err)
			assert.ErrorIs(t, err, errors.Unwrap(tt.err))
			require.NotNil(t, res)
			assert.Equal(t, 2, res.Failed)
			assert.Zero(t, res.Processed)
		})
	}
}

func TestEmbeddingGenerator_DimensionMismatch(t *testing.T) {
	f := newGeneratorFixture(t, testCourse("A"))
	f.embedder.fallback = vec(1, 0)

	_, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, getErr := f.index.Get(context.Background(), "A", domain.SourceKindDescription)
	assert.ErrorIs(t, getErr, domain.ErrNotFound)
}

func TestEmbeddingGenerator_StatsAcrossKinds(t *testing.T) {
	f := newGeneratorFixture(t, testCourse("A"), testCourse("B"))
	ctx := context.Background()
	require.NoError(t, f.catalog.AddReview(ctx, domain.Review{ID: "r1", CourseNumber: "A", Text: "good", Visible: true}))
	require.NoError(t, f.catalog.SaveContent(ctx, domain.ContentItem{ID: "c1", CourseNumber: "B", Text: "notes"}))

	stats, err := f.gen.Stats(ctx, domain.SourceKindAll, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total(domain.SourceKindAll))
	assert.Equal(t, 4, stats.Pending(domain.SourceKindAll))
	assert.Zero(t, stats.Skipped)

	_, err = f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindAll})
	require.NoError(t, err)

	stats, err = f.gen.Stats(ctx, domain.SourceKindAll, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, stats.Pending(domain.SourceKindAll))
	assert.Equal(t, 4, stats.Skipped)
	for _, k := range stats.Kinds {
		assert.Equal(t, k.Total-k.Embedded, k.Pending)
	}
}

func TestEmbeddingGenerator_ModelChangeMakesItemsPending(t *testing.T) {
	f := newGeneratorFixture(t, testCourse("A"))
	ctx := context.Background()
	_, err := f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindDescription})
	require.NoError(t, err)

	f.gen.model = "other-model"
	stats, err := f.gen.Stats(ctx, domain.SourceKindDescription, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending(domain.SourceKindDescription))
}

func TestEmbeddingGenerator_Validation(t *testing.T) {
	f := newGeneratorFixture(t, testCourse("A"))

	_, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: "bogus"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.gen.Stats(context.Background(), "bogus", time.Time{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	f.gen.embeddingService = nil
	_, err = f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbeddingGenerator_ChunkDelayIsHonoured(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(6)...)
	f.gen.settings.ChunkDelay = 20 * time.Millisecond

	start := time.Now()
	res, err := f.gen.Generate(context.Background(), domain.GenerateRequest{Kind: domain.SourceKindDescription})

	require.NoError(t, err)
	assert.Equal(t, 6, res.Processed)
	// Three chunks of two: the first starts immediately, two more wait.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestEmbeddingGenerator_CancelledContext(t *testing.T) {
	f := newGeneratorFixture(t, manyCourses(4)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.gen.Generate(ctx, domain.GenerateRequest{Kind: domain.SourceKindDescription})
	assert.ErrorIs(t, err, context.Canceled)
}

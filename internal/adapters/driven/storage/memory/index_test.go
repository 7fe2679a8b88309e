package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

func record(course string, kind domain.SourceKind, text string, vec ...float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ID:           course + "-" + string(kind),
		CourseNumber: course,
		Kind:         kind,
		SourceText:   text,
		ContentHash:  domain.HashText(text),
		Model:        "test",
		Vector:       vec,
		UpdatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIndex_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()

	require.NoError(t, x.Upsert(ctx, record("A", domain.SourceKindDescription, "v1", 1, 0)))
	require.NoError(t, x.Upsert(ctx, record("A", domain.SourceKindDescription, "v2", 0, 1)))
	require.NoError(t, x.Upsert(ctx, record("A", domain.SourceKindReviews, "r", 1, 1)))

	got, err := x.Get(ctx, "A", domain.SourceKindDescription)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.SourceText)

	list, err := x.ListByKind(ctx, domain.SourceKindDescription)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, x.Delete(ctx, "A", domain.SourceKindDescription))
	_, err = x.Get(ctx, "A", domain.SourceKindDescription)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndex_UpsertCopiesVector(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	rec := record("A", domain.SourceKindDescription, "t", 1, 2)

	require.NoError(t, x.Upsert(ctx, rec))
	rec.Vector[0] = 99

	got, err := x.Get(ctx, "A", domain.SourceKindDescription)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Vector)
}

func TestIndex_VectorSearch(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Upsert(ctx, record("A", domain.SourceKindDescription, "a", 1, 0, 0)))
	require.NoError(t, x.Upsert(ctx, record("B", domain.SourceKindDescription, "b", 0, 1, 0)))
	require.NoError(t, x.Upsert(ctx, record("C", domain.SourceKindDescription, "c", 0.7, 0.7, 0)))
	require.NoError(t, x.Upsert(ctx, record("D", domain.SourceKindReviews, "d", 0, 1, 0)))

	hits, err := x.Search(ctx, []float32{0.05, 1, 0}, domain.SourceKindDescription, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "B", hits[0].CourseNumber)
	assert.Equal(t, "C", hits[1].CourseNumber)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestLexicalView_Search(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Upsert(ctx, record("A", domain.SourceKindDescription, "Machine learning with Python", 1)))
	require.NoError(t, x.Upsert(ctx, record("B", domain.SourceKindDescription, "Python programming basics", 1)))
	require.NoError(t, x.Upsert(ctx, record("C", domain.SourceKindDescription, "Organic chemistry", 1)))
	require.NoError(t, x.Upsert(ctx, record("D", domain.SourceKindContent, "machine learning notes", 1)))

	hits, err := x.Lexical().Search(ctx, "machine learning python", domain.SourceKindDescription, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "A", hits[0].CourseNumber)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "B", hits[1].CourseNumber)
	assert.InDelta(t, 1.0/3.0, hits[1].Score, 1e-9)
	for _, h := range hits {
		assert.Equal(t, domain.SourceKindDescription, h.Kind)
	}

	none, err := x.Lexical().Search(ctx, "  ", domain.SourceKindDescription, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

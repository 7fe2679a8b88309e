package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/courselens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are looked up by exact text; unknown text gets fallback.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	errFor   map[string]error
	embedErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if err, ok := m.errFor[text]; ok {
		return nil, err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLexicalIndex implements driven.LexicalIndex for testing.
type mockLexicalIndex struct {
	hits      []driven.LexicalHit
	searchErr error
}

func (m *mockLexicalIndex) Search(_ context.Context, _ string, kind domain.SourceKind, limit int) ([]driven.LexicalHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []driven.LexicalHit
	for _, h := range m.hits {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, kind domain.SourceKind, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []driven.VectorHit
	for _, h := range m.hits {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// --- Fixtures ---

// fusionDefaults returns the default fusion weights.
func fusionDefaults() domain.FusionSettings {
	return domain.DefaultRetrievalConfig().Fusion
}

// testCourse builds an active course.
func testCourse(number string, aliases ...string) domain.Course {
	return domain.Course{
		Number:      number,
		Aliases:     aliases,
		Department:  "EECS",
		Title:       "Course " + number,
		Description: "About " + number,
		Units:       "12",
		Active:      true,
	}
}

// newCatalog saves the given courses into an in-memory catalog.
func newCatalog(courses ...domain.Course) *memory.Catalog {
	c := memory.NewCatalog()
	for _, course := range courses {
		if err := c.Save(context.Background(), course); err != nil {
			panic(err)
		}
	}
	return c
}

// hit builds a search hit.
func hit(number string, kind domain.SourceKind, score float64, snippet string) domain.SearchHit {
	return domain.SearchHit{CourseNumber: number, Kind: kind, Score: score, Snippet: snippet}
}

// vec builds a small test vector.
func vec(values ...float32) []float32 {
	return values
}

// joinSnippets joins snippets the way ResolvedCourse explanations do.
func joinSnippets(parts ...string) string {
	return strings.Join(parts, ExplanationDelimiter)
}

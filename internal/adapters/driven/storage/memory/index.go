package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/similarity"
)

// Ensure Index implements the interfaces.
var (
	_ driven.EmbeddingStore = (*Index)(nil)
	_ driven.VectorIndex    = (*Index)(nil)
)

type recordKey struct {
	course string
	kind   domain.SourceKind
}

// Index stores embedding records and searches them by vector and keyword.
// Keyword search covers exactly the embedded source text.
type Index struct {
	mu      sync.RWMutex
	records map[recordKey]domain.EmbeddingRecord
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{records: make(map[recordKey]domain.EmbeddingRecord)}
}

// Upsert replaces the record for the same course and kind.
func (x *Index) Upsert(_ context.Context, record domain.EmbeddingRecord) error {
	rec := record
	rec.Vector = append([]float32(nil), record.Vector...)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.records[recordKey{record.CourseNumber, record.Kind}] = rec
	return nil
}

// Get retrieves the record for a course and kind.
func (x *Index) Get(_ context.Context, courseNumber string, kind domain.SourceKind) (*domain.EmbeddingRecord, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rec, ok := x.records[recordKey{courseNumber, kind}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListByKind returns every record of a kind ordered by course number.
func (x *Index) ListByKind(_ context.Context, kind domain.SourceKind) ([]domain.EmbeddingRecord, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []domain.EmbeddingRecord
	for k, rec := range x.records {
		if k.kind == kind {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseNumber < out[j].CourseNumber })
	return out, nil
}

// Delete removes the record for a course and kind.
func (x *Index) Delete(_ context.Context, courseNumber string, kind domain.SourceKind) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.records, recordKey{courseNumber, kind})
	return nil
}

// Search returns the k records of kind most similar to query.
func (x *Index) Search(
	ctx context.Context, query []float32, kind domain.SourceKind, k int,
) ([]driven.VectorHit, error) {
	records, err := x.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, driven.VectorHit{
			CourseNumber: rec.CourseNumber,
			Kind:         rec.Kind,
			Similarity:   similarity.Cosine(query, rec.Vector),
			Text:         rec.SourceText,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Lexical returns a keyword view of the index. Index cannot implement both
// Search signatures directly.
func (x *Index) Lexical() *LexicalView {
	return &LexicalView{index: x}
}

// LexicalView ranks records by the fraction of query terms they contain.
type LexicalView struct {
	index *Index
}

// Ensure LexicalView implements the interface.
var _ driven.LexicalIndex = (*LexicalView)(nil)

// Search performs a keyword search restricted to one kind.
func (v *LexicalView) Search(
	ctx context.Context, query string, kind domain.SourceKind, limit int,
) ([]driven.LexicalHit, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}
	records, err := v.index.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	var hits []driven.LexicalHit
	for _, rec := range records {
		words := make(map[string]bool)
		for _, w := range tokenize(rec.SourceText) {
			words[w] = true
		}
		matched := 0
		first := ""
		for _, t := range terms {
			if words[t] {
				matched++
				if first == "" {
					first = t
				}
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, driven.LexicalHit{
			CourseNumber: rec.CourseNumber,
			Kind:         rec.Kind,
			Score:        float64(matched) / float64(len(terms)),
			Snippet:      snippetAround(rec.SourceText, first),
			Text:         rec.SourceText,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// tokenize lowercases text and splits it into unique letter/digit runs.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// snippetAround returns a short window of text starting near term.
func snippetAround(text, term string) string {
	const lead = 60
	i := strings.Index(strings.ToLower(text), term)
	if i <= lead || i >= len(text) {
		return domain.TruncateSnippet(text)
	}
	start := i - lead
	for start < i && !unicode.IsSpace(rune(text[start])) {
		start++
	}
	return domain.TruncateSnippet("..." + strings.TrimSpace(text[start:]))
}

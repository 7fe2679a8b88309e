package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/similarity"
)

// EmbeddingIndex implements the embedding store and a brute-force vector
// index over the embeddings table.
type EmbeddingIndex struct {
	store *Store
}

var (
	_ driven.EmbeddingStore = (*EmbeddingIndex)(nil)
	_ driven.VectorIndex    = (*EmbeddingIndex)(nil)
)

// Upsert replaces the record for the same course and kind and refreshes
// the keyword index row in the same transaction.
func (x *EmbeddingIndex) Upsert(ctx context.Context, record domain.EmbeddingRecord) error {
	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (course_number, kind, id, source_text, content_hash, model, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_number, kind) DO UPDATE SET
			id = excluded.id,
			source_text = excluded.source_text,
			content_hash = excluded.content_hash,
			model = excluded.model,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`, record.CourseNumber, string(record.Kind), record.ID, record.SourceText, record.ContentHash,
		record.Model, float32SliceToBytes(record.Vector), record.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}

	if err := deleteFTS(ctx, tx, record.CourseNumber, record.Kind); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO search_fts (course_number, kind, source_text) VALUES (?, ?, ?)",
		record.CourseNumber, string(record.Kind), record.SourceText)
	if err != nil {
		return fmt.Errorf("indexing embedding text: %w", err)
	}

	return tx.Commit()
}

// Get retrieves the record for a course and kind.
func (x *EmbeddingIndex) Get(ctx context.Context, courseNumber string, kind domain.SourceKind) (*domain.EmbeddingRecord, error) {
	row := x.store.db.QueryRowContext(ctx, `
		SELECT id, course_number, kind, source_text, content_hash, model, vector, updated_at
		FROM embeddings WHERE course_number = ? AND kind = ?
	`, courseNumber, string(kind))

	rec, err := scanEmbedding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// ListByKind returns every record of a kind ordered by course number.
func (x *EmbeddingIndex) ListByKind(ctx context.Context, kind domain.SourceKind) ([]domain.EmbeddingRecord, error) {
	rows, err := x.store.db.QueryContext(ctx, `
		SELECT id, course_number, kind, source_text, content_hash, model, vector, updated_at
		FROM embeddings WHERE kind = ? ORDER BY course_number
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.EmbeddingRecord
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return out, nil
}

// Delete removes the record for a course and kind with its keyword row.
func (x *EmbeddingIndex) Delete(ctx context.Context, courseNumber string, kind domain.SourceKind) error {
	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM embeddings WHERE course_number = ? AND kind = ?", courseNumber, string(kind)); err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	if err := deleteFTS(ctx, tx, courseNumber, kind); err != nil {
		return err
	}
	return tx.Commit()
}

// Search returns the k records of kind most similar to query.
func (x *EmbeddingIndex) Search(
	ctx context.Context, query []float32, kind domain.SourceKind, k int,
) ([]driven.VectorHit, error) {
	rows, err := x.store.db.QueryContext(ctx,
		"SELECT course_number, source_text, vector FROM embeddings WHERE kind = ?", string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var number, text string
		var blob []byte
		if err := rows.Scan(&number, &text, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		hits = append(hits, driven.VectorHit{
			CourseNumber: number,
			Kind:         kind,
			Similarity:   similarity.Cosine(query, bytesToFloat32Slice(blob)),
			Text:         text,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].CourseNumber < hits[j].CourseNumber
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func deleteFTS(ctx context.Context, tx *sql.Tx, courseNumber string, kind domain.SourceKind) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM search_fts WHERE course_number = ? AND kind = ?", courseNumber, string(kind))
	if err != nil {
		return fmt.Errorf("removing keyword row: %w", err)
	}
	return nil
}

func scanEmbedding(row scanner) (*domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	var kind string
	var blob []byte
	err := row.Scan(&rec.ID, &rec.CourseNumber, &kind, &rec.SourceText, &rec.ContentHash,
		&rec.Model, &blob, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	rec.Kind = domain.SourceKind(kind)
	rec.Vector = bytesToFloat32Slice(blob)
	return &rec, nil
}

// LexicalIndex implements keyword search with FTS5 over embedded text.
type LexicalIndex struct {
	store *Store
}

var _ driven.LexicalIndex = (*LexicalIndex)(nil)

// Search ranks rows of kind by bm25 and maps the rank into [0,1).
func (l *LexicalIndex) Search(
	ctx context.Context, query string, kind domain.SourceKind, limit int,
) ([]driven.LexicalHit, error) {
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT course_number, source_text,
			snippet(search_fts, 2, '', '', '...', 24) AS snippet,
			bm25(search_fts) AS rank
		FROM search_fts
		WHERE search_fts MATCH ? AND kind = ?
		ORDER BY rank, course_number
		LIMIT ?
	`, match, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword search: %w", domain.ErrSearchUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.LexicalHit
	for rows.Next() {
		var h driven.LexicalHit
		var rank float64
		if err := rows.Scan(&h.CourseNumber, &h.Text, &h.Snippet, &rank); err != nil {
			return nil, fmt.Errorf("scanning keyword hit: %w", err)
		}
		h.Kind = kind
		h.Score = normalizeRank(rank)
		h.Snippet = domain.TruncateSnippet(h.Snippet)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword hits: %w", err)
	}
	return hits, nil
}

// normalizeRank maps a bm25 rank (more negative is better) into [0,1).
func normalizeRank(rank float64) float64 {
	if rank >= 0 {
		return 0
	}
	r := -rank
	return r / (1 + r)
}

// matchExpression quotes each query term and ORs them so user input never
// reaches the FTS5 query syntax.
func matchExpression(query string) string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, `"`+f+`"`)
		}
	}
	return strings.Join(terms, " OR ")
}

// Package postgres provides an external embedding index backed by
// PostgreSQL with the pgvector extension. Keyword search uses a generated
// tsvector column over the same source text that was embedded.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/similarity"
)

// Ensure Index implements the interfaces.
var (
	_ driven.EmbeddingStore = (*Index)(nil)
	_ driven.VectorIndex    = (*Index)(nil)
)

// Index stores embedding records in a pgvector column.
type Index struct {
	db         *sql.DB
	dimensions int
}

// NewIndex connects to dsn and ensures the schema exists for vectors of
// the given dimension.
func NewIndex(ctx context.Context, dsn string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrValidation)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres: %w", domain.ErrUpstreamUnavailable, err)
	}

	x := &Index{db: db, dimensions: dimensions}
	if err := x.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return x, nil
}

// Close closes the connection pool.
func (x *Index) Close() error {
	return x.db.Close()
}

// Lexical returns the keyword view of the index.
func (x *Index) Lexical() *LexicalView {
	return &LexicalView{index: x}
}

func (x *Index) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS course_embeddings (
			course_number TEXT NOT NULL,
			kind          TEXT NOT NULL,
			id            TEXT NOT NULL UNIQUE,
			source_text   TEXT NOT NULL,
			content_hash  TEXT NOT NULL,
			model         TEXT NOT NULL,
			embedding     vector(%d) NOT NULL,
			search        tsvector GENERATED ALWAYS AS (to_tsvector('english', source_text)) STORED,
			updated_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (course_number, kind)
		)`, x.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_course_embeddings_search ON course_embeddings USING GIN (search)`,
		`CREATE INDEX IF NOT EXISTS idx_course_embeddings_kind ON course_embeddings (kind)`,
	}
	for _, stmt := range stmts {
		if _, err := x.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating postgres index: %w", err)
		}
	}
	return nil
}

// Upsert replaces the record for the same course and kind in one statement.
func (x *Index) Upsert(ctx context.Context, record domain.EmbeddingRecord) error {
	if len(record.Vector) != x.dimensions {
		return domain.DimensionError(x.dimensions, len(record.Vector))
	}

	_, err := x.db.ExecContext(ctx, `
		INSERT INTO course_embeddings (course_number, kind, id, source_text, content_hash, model, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (course_number, kind) DO UPDATE SET
			id = EXCLUDED.id,
			source_text = EXCLUDED.source_text,
			content_hash = EXCLUDED.content_hash,
			model = EXCLUDED.model,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`, record.CourseNumber, string(record.Kind), record.ID, record.SourceText, record.ContentHash,
		record.Model, pgvector.NewVector(record.Vector), record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Get retrieves the record for a course and kind.
func (x *Index) Get(ctx context.Context, courseNumber string, kind domain.SourceKind) (*domain.EmbeddingRecord, error) {
	row := x.db.QueryRowContext(ctx, `
		SELECT id, course_number, kind, source_text, content_hash, model, embedding, updated_at
		FROM course_embeddings WHERE course_number = $1 AND kind = $2
	`, courseNumber, string(kind))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// ListByKind returns every record of a kind ordered by course number.
func (x *Index) ListByKind(ctx context.Context, kind domain.SourceKind) ([]domain.EmbeddingRecord, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, course_number, kind, source_text, content_hash, model, embedding, updated_at
		FROM course_embeddings WHERE kind = $1 ORDER BY course_number
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing embeddings: %w", err)
	}
	defer rows.Close()

	list := []domain.EmbeddingRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the record for a course and kind.
func (x *Index) Delete(ctx context.Context, courseNumber string, kind domain.SourceKind) error {
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM course_embeddings WHERE course_number = $1 AND kind = $2`, courseNumber, string(kind))
	if err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	return nil
}

// Search orders records of kind by cosine distance to query.
// The <=> operator is cosine distance, so similarity is 1 - distance.
// pgvector reports NaN for zero vectors; those score 0.
func (x *Index) Search(ctx context.Context, query []float32, kind domain.SourceKind, k int) ([]driven.VectorHit, error) {
	if len(query) != x.dimensions {
		return nil, domain.DimensionError(x.dimensions, len(query))
	}
	if k <= 0 {
		k = 10
	}

	vector := pgvector.NewVector(query)
	rows, err := x.db.QueryContext(ctx, `
		SELECT course_number, source_text, 1 - (embedding <=> $1) AS similarity
		FROM course_embeddings
		WHERE kind = $2
		ORDER BY embedding <=> $1, course_number
		LIMIT $3
	`, vector, string(kind), k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		h := driven.VectorHit{Kind: kind}
		if err := rows.Scan(&h.CourseNumber, &h.Text, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scanning vector hit: %w", err)
		}
		h.Similarity = similarity.Clamp(h.Similarity)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// LexicalView ranks records with ts_rank_cd over the generated tsvector.
type LexicalView struct {
	index *Index
}

// Ensure LexicalView implements the interface.
var _ driven.LexicalIndex = (*LexicalView)(nil)

// Search performs an OR keyword search restricted to one kind. Rank
// normalisation 32 maps scores into [0,1).
func (v *LexicalView) Search(ctx context.Context, query string, kind domain.SourceKind, limit int) ([]driven.LexicalHit, error) {
	tsquery := orQuery(query)
	if tsquery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := v.index.db.QueryContext(ctx, `
		SELECT course_number, source_text,
			ts_headline('english', source_text, q, 'StartSel="",StopSel="",MaxWords=24,MinWords=8') AS snippet,
			ts_rank_cd(search, q, 32) AS score
		FROM course_embeddings, to_tsquery('english', $1) AS q
		WHERE kind = $2 AND search @@ q
		ORDER BY score DESC, course_number
		LIMIT $3
	`, tsquery, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword search: %w", domain.ErrSearchUnavailable, err)
	}
	defer rows.Close()

	hits := []driven.LexicalHit{}
	for rows.Next() {
		h := driven.LexicalHit{Kind: kind}
		if err := rows.Scan(&h.CourseNumber, &h.Text, &h.Snippet, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning keyword hit: %w", err)
		}
		h.Snippet = domain.TruncateSnippet(h.Snippet)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// orQuery builds a to_tsquery expression matching any query term. Terms
// are reduced to letters and digits so input never reaches tsquery syntax.
func orQuery(query string) string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return strings.Join(terms, " | ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	var kind string
	var vector pgvector.Vector
	err := row.Scan(&rec.ID, &rec.CourseNumber, &kind, &rec.SourceText, &rec.ContentHash,
		&rec.Model, &vector, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	rec.Kind = domain.SourceKind(kind)
	rec.Vector = vector.Slice()
	return &rec, nil
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// EmbeddingRecord is the stored vector for one (course, source kind) pair.
// A course has at most one record per kind; re-embedding overwrites it.
type EmbeddingRecord struct {
	// ID uniquely identifies the record.
	ID string

	// CourseNumber is the owning course's primary listing number.
	CourseNumber string

	// Kind is the source kind that was embedded.
	Kind SourceKind

	// SourceText is the exact text that was sent to the model.
	SourceText string

	// ContentHash is the hash of SourceText at embedding time.
	ContentHash string

	// Model is the embedding model that produced Vector.
	Model string

	// Vector always has the configured dimension.
	Vector []float32

	// UpdatedAt is the creation or last overwrite time.
	UpdatedAt time.Time
}

// SourceItem is the current text for one (course, kind) pair, derived from
// catalog state. It is what the generator embeds.
type SourceItem struct {
	CourseNumber string
	Kind         SourceKind
	Text         string
	ContentHash  string
}

// HashText returns the content hash used to detect material changes.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NewSourceItem builds a SourceItem with its content hash.
func NewSourceItem(course string, kind SourceKind, text string) SourceItem {
	return SourceItem{
		CourseNumber: course,
		Kind:         kind,
		Text:         text,
		ContentHash:  HashText(text),
	}
}

// IsCurrent reports whether rec is a fresh embedding of item by model.
// A record older than staleBefore is treated as outdated when staleBefore is set.
func (item SourceItem) IsCurrent(rec *EmbeddingRecord, model string, staleBefore time.Time) bool {
	if rec == nil {
		return false
	}
	if rec.ContentHash != item.ContentHash || rec.Model != model {
		return false
	}
	if !staleBefore.IsZero() && rec.UpdatedAt.Before(staleBefore) {
		return false
	}
	return true
}

// KindStats holds counts for one source kind.
type KindStats struct {
	Kind     SourceKind `json:"kind"`
	Total    int        `json:"total"`
	Embedded int        `json:"embedded"`
	Pending  int        `json:"pending"`
}

// EmbeddingStats is a derived view over source content and stored embeddings.
type EmbeddingStats struct {
	Kinds []KindStats `json:"kinds"`

	// Skipped counts items whose content is unchanged since they were embedded.
	Skipped int `json:"skipped"`
}

// Pending returns the pending count for a scope.
func (s EmbeddingStats) Pending(scope SourceKind) int {
	n := 0
	for _, k := range s.Kinds {
		if scope == SourceKindAll || k.Kind == scope {
			n += k.Pending
		}
	}
	return n
}

// Total returns the total item count for a scope.
func (s EmbeddingStats) Total(scope SourceKind) int {
	n := 0
	for _, k := range s.Kinds {
		if scope == SourceKindAll || k.Kind == scope {
			n += k.Total
		}
	}
	return n
}

// GenerateRequest is the generation trigger input.
type GenerateRequest struct {
	// Kind is a concrete kind or SourceKindAll.
	Kind SourceKind

	// Limit caps the number of items processed by this call.
	Limit int

	// Force re-embeds items even when their embedding is current.
	Force bool

	// ForceBefore bounds a forced run: only records older than this are redone.
	// Zero means the time of the call.
	ForceBefore time.Time
}

// ItemFailure records one item that could not be embedded.
type ItemFailure struct {
	CourseNumber string
	Kind         SourceKind
	Err          error
}

// GenerateResult summarises one generation call.
type GenerateResult struct {
	// Processed is the number of records written by this call.
	Processed int

	// Failed is the number of selected items that could not be embedded.
	Failed int

	// Skipped is the number of items left alone because they were current.
	Skipped int

	// Remaining is the pending count for the requested scope after the call.
	Remaining int

	// Failures holds the per-item errors.
	Failures []ItemFailure
}

// SourceTextSeparator joins the parts of an aggregated source text.
const SourceTextSeparator = "\n\n"

// DescriptionText is the text embedded for a course's description kind.
func DescriptionText(c *Course) string {
	title := strings.TrimSpace(c.Title)
	desc := strings.TrimSpace(c.Description)
	switch {
	case title == "":
		return desc
	case desc == "":
		return title
	default:
		return title + SourceTextSeparator + desc
	}
}

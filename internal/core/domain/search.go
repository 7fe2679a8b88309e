package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxSnippetLength bounds SearchHit.Snippet, in runes.
const MaxSnippetLength = 300

// SearchHit is one scored piece of course evidence. Hits are produced fresh
// per query and never persisted.
type SearchHit struct {
	// CourseNumber is the listing number the evidence was filed under.
	// It may be an alias; IdentityResolver maps it to the canonical number.
	CourseNumber string `json:"course_number"`

	// Score is the fused relevance. Higher is more relevant.
	Score float64 `json:"score"`

	// Kind is the source kind the evidence came from.
	Kind SourceKind `json:"kind"`

	// Snippet is a bounded excerpt of the evidence.
	Snippet string `json:"snippet"`

	// Text is the full contributing text, kept for auditing.
	Text string `json:"text,omitempty"`

	// LexicalScore is the normalised keyword score in [0,1].
	LexicalScore float64 `json:"lexical_score"`

	// SemanticScore is the cosine similarity in [-1,1].
	SemanticScore float64 `json:"semantic_score"`
}

// Validate checks the hit has a usable identity and a finite score.
func (h *SearchHit) Validate() error {
	if strings.TrimSpace(h.CourseNumber) == "" {
		return fmt.Errorf("%w: hit has no course number", ErrValidation)
	}
	if !h.Kind.IsValid() {
		return fmt.Errorf("%w: hit has unknown kind %q", ErrValidation, h.Kind)
	}
	if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
		return fmt.Errorf("%w: hit score is not finite", ErrValidation)
	}
	return nil
}

// TruncateSnippet shortens text to MaxSnippetLength runes, marking the cut.
func TruncateSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= MaxSnippetLength {
		return text
	}
	return string(runes[:MaxSnippetLength]) + "..."
}

// ResolvedCourse is the single merged entry for one canonical course identity.
type ResolvedCourse struct {
	// Number is the canonical (primary) listing number.
	Number string `json:"number"`

	// Aliases are the other listing numbers seen or known for this course.
	Aliases []string `json:"aliases,omitempty"`

	// Representative is the highest-scoring hit that was merged in.
	Representative SearchHit `json:"representative"`

	// Explanation joins the representative snippet with every merged snippet.
	Explanation string `json:"explanation"`

	// Hits are all hits merged into this entry.
	Hits []SearchHit `json:"-"`
}

// Score returns the representative score.
func (r *ResolvedCourse) Score() float64 {
	return r.Representative.Score
}

// HasKind reports whether any merged hit came from kind.
func (r *ResolvedCourse) HasKind(kind SourceKind) bool {
	for i := range r.Hits {
		if r.Hits[i].Kind == kind {
			return true
		}
	}
	return false
}

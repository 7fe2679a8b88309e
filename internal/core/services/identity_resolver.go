package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/logger"
)

// ExplanationDelimiter separates merged snippets in a ResolvedCourse explanation.
const ExplanationDelimiter = " | "

// IdentityResolver merges hits that refer to the same course under different
// listing numbers.
type IdentityResolver struct {
	courses driven.CourseStore
}

// NewIdentityResolver creates a resolver. courses may be nil, in which case
// every listing number is its own identity.
func NewIdentityResolver(courses driven.CourseStore) *IdentityResolver {
	return &IdentityResolver{courses: courses}
}

// identityCache memoises identity lookups for the duration of one call.
type identityCache struct {
	courses driven.CourseStore
	known   map[string]domain.CourseIdentity
	unknown map[string]bool
}

func newIdentityCache(courses driven.CourseStore) *identityCache {
	return &identityCache{
		courses: courses,
		known:   make(map[string]domain.CourseIdentity),
		unknown: make(map[string]bool),
	}
}

// lookup returns the identity for number and whether the catalog knows it.
func (c *identityCache) lookup(ctx context.Context, number string) (domain.CourseIdentity, bool) {
	if id, ok := c.known[number]; ok {
		return id, true
	}
	if c.unknown[number] || c.courses == nil {
		return domain.CourseIdentity{Primary: number}, false
	}

	id, err := c.courses.Identity(ctx, number)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Identity lookup for %s failed: %v", number, err)
		}
		c.unknown[number] = true
		return domain.CourseIdentity{Primary: number}, false
	}
	for _, n := range id.Numbers() {
		c.known[n] = id
	}
	return id, true
}

// resolveEntry accumulates the hits for one canonical key.
type resolveEntry struct {
	key     string
	numbers map[string]bool
	hits    []domain.SearchHit
}

// resolveState is the incremental merge state. index maps every listing
// number seen so far to the key of the entry that owns it.
type resolveState struct {
	entries map[string]*resolveEntry
	index   map[string]string
}

func newResolveState() *resolveState {
	return &resolveState{
		entries: make(map[string]*resolveEntry),
		index:   make(map[string]string),
	}
}

// claim returns the entry for key, migrating every entry that currently owns
// one of numbers into it. Entries created under what later turns out to be an
// alias are re-keyed here.
func (s *resolveState) claim(key string, numbers []string) *resolveEntry {
	target, ok := s.entries[key]
	if !ok {
		target = &resolveEntry{key: key, numbers: make(map[string]bool)}
		s.entries[key] = target
	}

	for _, n := range numbers {
		owner, ok := s.index[n]
		if !ok || owner == key {
			continue
		}
		old := s.entries[owner]
		delete(s.entries, owner)
		logger.Debug("Re-keying %s into %s", owner, key)
		for m := range old.numbers {
			target.numbers[m] = true
			s.index[m] = key
		}
		target.hits = append(target.hits, old.hits...)
	}

	for _, n := range numbers {
		target.numbers[n] = true
		s.index[n] = key
	}
	return target
}

// Resolve merges hits by canonical identity. The result is sorted by
// representative score, highest first, and does not depend on input order.
func (r *IdentityResolver) Resolve(ctx context.Context, hits []domain.SearchHit) []domain.ResolvedCourse {
	cache := newIdentityCache(r.courses)
	state := newResolveState()

	for _, hit := range hits {
		number := strings.TrimSpace(hit.CourseNumber)
		if number == "" {
			continue
		}

		id, known := cache.lookup(ctx, number)
		if !known {
			// An unknown number joins whichever entry already claims it.
			if owner, ok := state.index[number]; ok {
				e := state.entries[owner]
				e.hits = append(e.hits, hit)
				continue
			}
		}

		e := state.claim(id.Primary, id.Numbers())
		e.numbers[number] = true
		state.index[number] = e.key
		e.hits = append(e.hits, hit)
	}

	out := make([]domain.ResolvedCourse, 0, len(state.entries))
	for _, e := range state.entries {
		out = append(out, e.resolved())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		return out[i].Number < out[j].Number
	})

	logger.Debug("Resolved %d hits into %d courses", len(hits), len(out))
	return out
}

// Canonical returns the primary listing number for number.
func (r *IdentityResolver) Canonical(ctx context.Context, number string) string {
	id, _ := newIdentityCache(r.courses).lookup(ctx, number)
	return id.Primary
}

// resolved builds the merged entry. Hits are ordered canonically so the
// representative and explanation are the same whatever order they arrived in.
func (e *resolveEntry) resolved() domain.ResolvedCourse {
	hits := make([]domain.SearchHit, len(e.hits))
	copy(hits, e.hits)
	sort.SliceStable(hits, func(i, j int) bool {
		return hitLess(&hits[i], &hits[j])
	})

	aliases := make([]string, 0, len(e.numbers))
	for n := range e.numbers {
		if n != e.key {
			aliases = append(aliases, n)
		}
	}
	sort.Strings(aliases)

	seen := make(map[string]bool)
	parts := make([]string, 0, len(hits))
	for i := range hits {
		snippet := strings.TrimSpace(hits[i].Snippet)
		if snippet == "" || seen[snippet] {
			continue
		}
		seen[snippet] = true
		parts = append(parts, snippet)
	}

	rc := domain.ResolvedCourse{
		Number:      e.key,
		Aliases:     aliases,
		Explanation: strings.Join(parts, ExplanationDelimiter),
		Hits:        hits,
	}
	if len(hits) > 0 {
		rc.Representative = hits[0]
		rc.Representative.CourseNumber = e.key
	}
	return rc
}

// hitLess orders hits by score, then by kind, listing number and snippet.
func hitLess(a, b *domain.SearchHit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Kind != b.Kind {
		return kindRank(a.Kind) < kindRank(b.Kind)
	}
	if a.CourseNumber != b.CourseNumber {
		return a.CourseNumber < b.CourseNumber
	}
	return a.Snippet < b.Snippet
}

func kindRank(k domain.SourceKind) int {
	for i, kind := range domain.AllSourceKinds() {
		if kind == k {
			return i
		}
	}
	return len(domain.AllSourceKinds())
}

package normalisers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/normalisers/html"
	"github.com/custodia-labs/courselens/internal/normalisers/markdown"
	"github.com/custodia-labs/courselens/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps content formats to normalisers.
type Registry struct {
	byFormat map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byFormat: make(map[string]driven.Normaliser)}
}

// Defaults returns a registry with the plaintext, markdown and html normalisers.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	return r
}

// Register adds n under each of its formats, replacing earlier entries.
func (r *Registry) Register(n driven.Normaliser) {
	for _, f := range n.Formats() {
		r.byFormat[strings.ToLower(f)] = n
	}
}

// Normalise converts raw with the normaliser registered for format.
// An empty format is treated as plain text.
func (r *Registry) Normalise(format, raw string) (driven.NormaliseResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = plaintext.Format
	}
	n, ok := r.byFormat[format]
	if !ok {
		return driven.NormaliseResult{}, fmt.Errorf("%w: unsupported content format %q", domain.ErrValidation, format)
	}
	return n.Normalise(raw), nil
}

// Formats returns all registered formats, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Package plaintext normalises plain-text course material.
package plaintext

import (
	"strings"

	"github.com/custodia-labs/courselens/internal/core/ports/driven"
)

// Format is the canonical plain-text format name.
const Format = "text"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text. It is the fallback for unlabelled content.
type Normaliser struct{}

// New creates a new plain-text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Formats returns the content formats this normaliser handles.
func (n *Normaliser) Formats() []string {
	return []string{Format, "txt", "plain"}
}

// Normalise unifies line endings and trims each line.
func (n *Normaliser) Normalise(raw string) driven.NormaliseResult {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return driven.NormaliseResult{Text: strings.TrimSpace(strings.Join(lines, "\n"))}
}

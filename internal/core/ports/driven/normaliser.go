package driven

// Normaliser turns uploaded course material of one format into plain text
// suitable for keyword search and embedding.
type Normaliser interface {
	// Formats returns the content formats this normaliser handles, e.g. "html".
	Formats() []string

	// Normalise extracts readable text and, when present, a title.
	Normalise(raw string) NormaliseResult
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Title is the document title found in the markup, or empty.
	Title string

	// Text is the readable text.
	Text string
}

// NormaliserRegistry selects a normaliser by content format.
type NormaliserRegistry interface {
	// Normalise converts raw using the normaliser for format.
	// Returns domain.ErrValidation for unknown formats.
	Normalise(format, raw string) (NormaliseResult, error)

	// Formats returns every registered format.
	Formats() []string
}

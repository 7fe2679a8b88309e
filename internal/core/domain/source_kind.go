package domain

// SourceKind is the category of course text that gets embedded.
type SourceKind string

// Available source kinds.
const (
	// SourceKindDescription is the catalog title and description.
	SourceKindDescription SourceKind = "description"

	// SourceKindReviews is the aggregate of visible student reviews.
	SourceKindReviews SourceKind = "reviews"

	// SourceKindContent is text extracted from uploaded course materials.
	SourceKindContent SourceKind = "content"

	// SourceKindAll selects every kind. Only valid as a generation or stats scope.
	SourceKindAll SourceKind = "all"
)

// AllSourceKinds returns the concrete source kinds in processing order.
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceKindDescription,
		SourceKindReviews,
		SourceKindContent,
	}
}

// IsValid returns true for a concrete source kind.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindDescription, SourceKindReviews, SourceKindContent:
		return true
	default:
		return false
	}
}

// IsValidScope returns true for a concrete kind or SourceKindAll.
func (k SourceKind) IsValidScope() bool {
	return k == SourceKindAll || k.IsValid()
}

// Expand returns the concrete kinds covered by this scope.
func (k SourceKind) Expand() []SourceKind {
	if k == SourceKindAll {
		return AllSourceKinds()
	}
	return []SourceKind{k}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

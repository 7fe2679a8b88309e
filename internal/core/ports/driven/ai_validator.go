package driven

import "github.com/custodia-labs/courselens/internal/core/domain"

// AIConfigValidator checks a configuration against the live provider before
// it is relied on for generation.
type AIConfigValidator interface {
	// ValidateEmbedding reports whether the provider is reachable and returns
	// vectors of the configured dimension.
	ValidateEmbedding(provider domain.AIProvider, settings *domain.EmbeddingSettings) error
}

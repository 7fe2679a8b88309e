// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations classify failures into domain.ErrAuthentication (credential
// rejected) and domain.ErrUpstreamUnavailable (host unreachable, 5xx, or the
// embedding route is missing).
//
// Implementations include:
//   - Ollama (nomic-embed-text, mxbai-embed-large)
//   - Gemini (text-embedding-004)
//   - OpenAI-compatible APIs (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the configured embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

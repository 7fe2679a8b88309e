package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a model host for chat or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is an OpenAI-compatible API. Embeddings only.
	AIProviderOpenAI AIProvider = "openai"
)

// AllChatProviders returns the providers that can serve chat.
func AllChatProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderGemini}
}

// AllEmbeddingProviders returns the providers that can serve embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderGemini, AIProviderOpenAI}
}

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderGemini, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// IsChatProvider returns true if the provider may be selected as the chat provider.
func (p AIProvider) IsChatProvider() bool {
	return p == AIProviderOllama || p == AIProviderGemini
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects where embeddings and the search index live.
type StorageBackend string

// Available storage backends.
const (
	// StorageBackendSQLite keeps everything in one local SQLite file.
	StorageBackendSQLite StorageBackend = "sqlite"

	// StorageBackendPostgres uses a pgvector-enabled Postgres for embeddings and search.
	StorageBackendPostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendSQLite || b == StorageBackendPostgres
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding host. Empty means "same as the chat provider".
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the fixed vector length D every stored vector must have.
	Dimensions int

	// BaseURL is the API endpoint; empty selects the provider default.
	BaseURL string

	// APIKey is the credential for cloud providers.
	APIKey string
}

// GenerationSettings tunes embedding generation.
type GenerationSettings struct {
	// Concurrency bounds in-flight embedding calls.
	Concurrency int

	// ChunkDelay is the pause between chunks of Concurrency calls.
	ChunkDelay time.Duration

	// PageSize is the number of items per generate call in batch runs.
	PageSize int

	// MaxBatches is the safety ceiling on generate calls per batch run.
	MaxBatches int
}

// FusionSettings weights the two retrieval signals. Both must be non-negative
// so the fused score is monotonic in each component.
type FusionSettings struct {
	LexicalWeight  float64
	SemanticWeight float64
}

// ContextSettings tunes context assembly.
type ContextSettings struct {
	// Count is the number of courses requested per query.
	Count int

	// ReviewExcerpts caps the number of review excerpts.
	ReviewExcerpts int

	// AnchorContent applies description anchoring to content hits as well as reviews.
	AnchorContent bool

	// QueryTimeout bounds a whole context build.
	QueryTimeout time.Duration
}

// StorageSettings selects and locates the storage backend.
type StorageSettings struct {
	Backend     StorageBackend
	DataDir     string
	PostgresDSN string
}

// RetrievalConfig is the explicit configuration passed to the generator,
// retriever and assembler at construction.
type RetrievalConfig struct {
	ChatProvider AIProvider
	Embedding    EmbeddingSettings
	Generation   GenerationSettings
	Fusion       FusionSettings
	Context      ContextSettings
	Storage      StorageSettings
}

// DefaultRetrievalConfig returns settings with sensible defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		ChatProvider: AIProviderOllama,
		Embedding: EmbeddingSettings{
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Generation: GenerationSettings{
			Concurrency: 5,
			ChunkDelay:  50 * time.Millisecond,
			PageSize:    500,
			MaxBatches:  1000,
		},
		Fusion: FusionSettings{
			LexicalWeight:  0.3,
			SemanticWeight: 0.7,
		},
		Context: ContextSettings{
			Count:          5,
			ReviewExcerpts: 10,
			AnchorContent:  true,
			QueryTimeout:   30 * time.Second,
		},
		Storage: StorageSettings{
			Backend: StorageBackendSQLite,
		},
	}
}

// EmbeddingProvider returns the effective embedding provider.
func (c *RetrievalConfig) EmbeddingProvider() AIProvider {
	if c.Embedding.Provider != "" {
		return c.Embedding.Provider
	}
	return c.ChatProvider
}

// Validate checks the configuration is usable.
func (c *RetrievalConfig) Validate() error {
	if !c.ChatProvider.IsChatProvider() {
		return fmt.Errorf("%w: unsupported chat provider %q", ErrValidation, c.ChatProvider)
	}
	if p := c.EmbeddingProvider(); !p.IsValid() {
		return fmt.Errorf("%w: unsupported embedding provider %q", ErrValidation, p)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding model is required", ErrValidation)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrValidation)
	}
	if c.Generation.Concurrency <= 0 || c.Generation.PageSize <= 0 || c.Generation.MaxBatches <= 0 {
		return fmt.Errorf("%w: generation concurrency, page size and max batches must be positive", ErrValidation)
	}
	if c.Fusion.LexicalWeight < 0 || c.Fusion.SemanticWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrValidation)
	}
	if !c.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unsupported storage backend %q", ErrValidation, c.Storage.Backend)
	}
	if c.Storage.Backend == StorageBackendPostgres && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres backend requires a DSN", ErrValidation)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderGemini: "text-embedding-004",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the native vector size of known embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-004":     768,
		"gemini-embedding-001":   3072,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}

package driving

import "github.com/custodia-labs/courselens/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves the effective configuration, including environment overrides.
	Get() (*domain.RetrievalConfig, error)

	// Save persists the configuration.
	Save(cfg *domain.RetrievalConfig) error

	// SetChatProvider selects the chat provider.
	SetChatProvider(provider domain.AIProvider) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.RetrievalConfig

	// ValidateEmbeddingConfig checks the provider is reachable and returns
	// vectors of the configured dimension.
	ValidateEmbeddingConfig() error

	// ConfigPath returns the settings file location.
	ConfigPath() string
}

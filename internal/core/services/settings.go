package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChatProvider       = "chat.provider"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedDimensions    = "embedding.dimensions"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyGenConcurrency     = "generation.concurrency"
	keyGenChunkDelayMS    = "generation.chunk_delay_ms"
	keyGenPageSize        = "generation.page_size"
	keyGenMaxBatches      = "generation.max_batches"
	keyFusionLexical      = "fusion.lexical_weight"
	keyFusionSemantic     = "fusion.semantic_weight"
	keyContextCount       = "context.count"
	keyContextReviews     = "context.review_excerpts"
	keyContextAnchor      = "context.anchor_content"
	keyContextTimeoutSecs = "context.query_timeout_seconds"
	keyStorageBackend     = "storage.backend"
	keyStorageDataDir     = "storage.data_dir"
	keyStoragePostgresDSN = "storage.postgres_dsn"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvChatProvider        = "COURSELENS_CHAT_PROVIDER"
	EnvEmbeddingModel      = "COURSELENS_EMBEDDING_MODEL"
	EnvEmbeddingDimensions = "COURSELENS_EMBEDDING_DIMENSIONS"
	EnvEmbeddingAPIKey     = "COURSELENS_EMBEDDING_API_KEY"
	EnvPostgresDSN         = "COURSELENS_POSTGRES_DSN"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves the effective configuration: defaults, then stored values,
// then environment overrides.
func (s *SettingsService) Get() (*domain.RetrievalConfig, error) {
	d := domain.DefaultRetrievalConfig()

	cfg := &domain.RetrievalConfig{
		ChatProvider: s.getProvider(keyChatProvider, d.ChatProvider),
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, ""),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			Dimensions: s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty selects the provider default
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
		},
		Generation: domain.GenerationSettings{
			Concurrency: s.getInt(keyGenConcurrency, d.Generation.Concurrency),
			ChunkDelay:  s.getDuration(keyGenChunkDelayMS, time.Millisecond, d.Generation.ChunkDelay),
			PageSize:    s.getInt(keyGenPageSize, d.Generation.PageSize),
			MaxBatches:  s.getInt(keyGenMaxBatches, d.Generation.MaxBatches),
		},
		Fusion: domain.FusionSettings{
			LexicalWeight:  s.getFloat(keyFusionLexical, d.Fusion.LexicalWeight),
			SemanticWeight: s.getFloat(keyFusionSemantic, d.Fusion.SemanticWeight),
		},
		Context: domain.ContextSettings{
			Count:          s.getInt(keyContextCount, d.Context.Count),
			ReviewExcerpts: s.getInt(keyContextReviews, d.Context.ReviewExcerpts),
			AnchorContent:  s.getBool(keyContextAnchor, d.Context.AnchorContent),
			QueryTimeout:   s.getDuration(keyContextTimeoutSecs, time.Second, d.Context.QueryTimeout),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(d.Storage.Backend),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.configStore.GetString(keyStoragePostgresDSN),
		},
	}

	if err := s.applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func (s *SettingsService) applyEnv(cfg *domain.RetrievalConfig) error {
	if v, ok := s.lookupEnv(EnvChatProvider); ok && v != "" {
		p := domain.AIProvider(v)
		if !p.IsChatProvider() {
			return fmt.Errorf("%w: %s=%q is not a chat provider", domain.ErrValidation, EnvChatProvider, v)
		}
		cfg.ChatProvider = p
	}
	if v, ok := s.lookupEnv(EnvEmbeddingModel); ok && v != "" {
		cfg.Embedding.Model = v
	}
	if v, ok := s.lookupEnv(EnvEmbeddingDimensions); ok && v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s=%q is not a positive integer", domain.ErrValidation, EnvEmbeddingDimensions, v)
		}
		cfg.Embedding.Dimensions = d
	}
	if v, ok := s.lookupEnv(EnvEmbeddingAPIKey); ok && v != "" {
		cfg.Embedding.APIKey = v
	}
	if v, ok := s.lookupEnv(EnvPostgresDSN); ok && v != "" {
		cfg.Storage.PostgresDSN = v
		cfg.Storage.Backend = domain.StorageBackendPostgres
	}
	return nil
}

// Save persists the configuration. The API key is only written when set.
func (s *SettingsService) Save(cfg *domain.RetrievalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChatProvider, cfg.ChatProvider.String()},
		{keyEmbedProvider, cfg.Embedding.Provider.String()},
		{keyEmbedModel, cfg.Embedding.Model},
		{keyEmbedDimensions, cfg.Embedding.Dimensions},
		{keyEmbedBaseURL, cfg.Embedding.BaseURL},
		{keyGenConcurrency, cfg.Generation.Concurrency},
		{keyGenChunkDelayMS, int(cfg.Generation.ChunkDelay / time.Millisecond)},
		{keyGenPageSize, cfg.Generation.PageSize},
		{keyGenMaxBatches, cfg.Generation.MaxBatches},
		{keyFusionLexical, cfg.Fusion.LexicalWeight},
		{keyFusionSemantic, cfg.Fusion.SemanticWeight},
		{keyContextCount, cfg.Context.Count},
		{keyContextReviews, cfg.Context.ReviewExcerpts},
		{keyContextAnchor, cfg.Context.AnchorContent},
		{keyContextTimeoutSecs, int(cfg.Context.QueryTimeout / time.Second)},
		{keyStorageBackend, string(cfg.Storage.Backend)},
		{keyStorageDataDir, cfg.Storage.DataDir},
		{keyStoragePostgresDSN, cfg.Storage.PostgresDSN},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if cfg.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, cfg.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	return nil
}

// SetChatProvider selects the chat provider.
func (s *SettingsService) SetChatProvider(provider domain.AIProvider) error {
	if !provider.IsChatProvider() {
		return fmt.Errorf("%w: %s cannot be used as the chat provider", domain.ErrValidation, provider)
	}

	cfg, err := s.Get()
	if err != nil {
		return err
	}
	cfg.ChatProvider = provider
	return s.Save(cfg)
}

// SetEmbeddingProvider configures the embedding provider. An empty model
// selects the provider default and the dimension follows the model.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrValidation, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	cfg, err := s.Get()
	if err != nil {
		return err
	}

	cfg.Embedding.Provider = provider
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	cfg.Embedding.Model = model
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		cfg.Embedding.Dimensions = d
	}
	cfg.Embedding.APIKey = apiKey

	return s.Save(cfg)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.RetrievalConfig {
	return domain.DefaultRetrievalConfig()
}

// ValidateEmbeddingConfig checks the effective embedding configuration against the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(cfg.EmbeddingProvider(), &cfg.Embedding)
}

// ConfigPath returns the settings file location.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * unit
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

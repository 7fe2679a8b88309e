package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name           string
		provider       domain.AIProvider
		settings       *domain.EmbeddingSettings
		wantErr        error
		wantModel      string
		wantDimensions int
	}{
		{
			name:     "nil settings",
			provider: domain.AIProviderOllama,
			wantErr:  domain.ErrValidation,
		},
		{
			name:           "ollama uses model dimensions",
			provider:       domain.AIProviderOllama,
			settings:       &domain.EmbeddingSettings{Model: "mxbai-embed-large"},
			wantModel:      "mxbai-embed-large",
			wantDimensions: 1024,
		},
		{
			name:           "configured dimensions win",
			provider:       domain.AIProviderOllama,
			settings:       &domain.EmbeddingSettings{Model: "nomic-embed-text", Dimensions: 256},
			wantModel:      "nomic-embed-text",
			wantDimensions: 256,
		},
		{
			name:           "gemini",
			provider:       domain.AIProviderGemini,
			settings:       &domain.EmbeddingSettings{Model: "text-embedding-004", APIKey: "key"},
			wantModel:      "text-embedding-004",
			wantDimensions: 768,
		},
		{
			name:     "gemini without key",
			provider: domain.AIProviderGemini,
			settings: &domain.EmbeddingSettings{Model: "text-embedding-004"},
			wantErr:  domain.ErrValidation,
		},
		{
			name:           "openai",
			provider:       domain.AIProviderOpenAI,
			settings:       &domain.EmbeddingSettings{Model: "text-embedding-3-small", APIKey: "sk"},
			wantModel:      "text-embedding-3-small",
			wantDimensions: 1536,
		},
		{
			name:     "unknown provider",
			provider: "bedrock",
			settings: &domain.EmbeddingSettings{},
			wantErr:  domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.provider, tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDimensions, svc.Dimensions())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer healthy.Close()

	svc, err := CreateAndValidateEmbeddingService(context.Background(), domain.AIProviderOllama,
		&domain.EmbeddingSettings{BaseURL: healthy.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)
	require.NotNil(t, svc)
	svc.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	svc, err = CreateAndValidateEmbeddingService(context.Background(), domain.AIProviderOllama,
		&domain.EmbeddingSettings{BaseURL: down.URL})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "courselens settings embedding")

	_, err = CreateAndValidateEmbeddingService(context.Background(), "bedrock", &domain.EmbeddingSettings{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestValidateEmbeddingConfig(t *testing.T) {
	rejected := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer rejected.Close()

	err := NewConfigValidator().ValidateEmbedding(domain.AIProviderGemini,
		&domain.EmbeddingSettings{BaseURL: rejected.URL, APIKey: "bad"})

	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

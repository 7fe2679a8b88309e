package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// mockSettingsService records provider changes.
type mockSettingsService struct {
	cfg         domain.RetrievalConfig
	chat        domain.AIProvider
	embedding   domain.AIProvider
	model       string
	apiKey      string
	validateErr error
}

func (m *mockSettingsService) Get() (*domain.RetrievalConfig, error) {
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettingsService) Save(cfg *domain.RetrievalConfig) error {
	m.cfg = *cfg
	return nil
}

func (m *mockSettingsService) SetChatProvider(provider domain.AIProvider) error {
	m.chat = provider
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedding, m.model, m.apiKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.RetrievalConfig {
	return domain.DefaultRetrievalConfig()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ConfigPath() string {
	return "/home/student/.courselens/config.toml"
}

func withSettings(t *testing.T, m *mockSettingsService) {
	t.Helper()
	old := settingsService
	settingsService = m
	t.Cleanup(func() { settingsService = old })
}

func TestSettingsShowCmd(t *testing.T) {
	cfg := domain.DefaultRetrievalConfig()
	cfg.ChatProvider = domain.AIProviderGemini
	cfg.Embedding.APIKey = "AIzaSyExampleKey1234"
	withSettings(t, &mockSettingsService{cfg: cfg})

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "File: /home/student/.courselens/config.toml")
	assert.Contains(t, out, "Provider: Gemini (cloud) (follows chat)")
	assert.Contains(t, out, "API Key: AIza...1234")
	assert.Contains(t, out, "Weights: lexical 0.30, semantic 0.70")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_InvalidWarns(t *testing.T) {
	cfg := domain.DefaultRetrievalConfig()
	cfg.Storage.Backend = domain.StorageBackendPostgres
	withSettings(t, &mockSettingsService{cfg: cfg})

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "postgres backend requires a DSN")
}

func TestSettingsChatCmd(t *testing.T) {
	m := &mockSettingsService{cfg: domain.DefaultRetrievalConfig()}
	withSettings(t, m)

	rootCmd.SetIn(strings.NewReader("2\n"))
	rootCmd.SetArgs([]string{"settings", "chat"})
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, domain.AIProviderGemini, m.chat)
	assert.Contains(t, buf.String(), "Chat provider set to: Gemini (cloud)")
}

func TestSettingsChatCmd_InvalidChoice(t *testing.T) {
	withSettings(t, &mockSettingsService{})

	_, err := execute(t, "settings", "chat")

	assert.EqualError(t, err, "invalid selection")
}

func TestSettingsEmbeddingCmd_OllamaDefaults(t *testing.T) {
	m := &mockSettingsService{}
	withSettings(t, m)

	rootCmd.SetIn(strings.NewReader("1\n\n"))
	rootCmd.SetArgs([]string{"settings", "embedding"})
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, domain.AIProviderOllama, m.embedding)
	assert.Equal(t, "nomic-embed-text", m.model)
	assert.Empty(t, m.apiKey)
	assert.Contains(t, buf.String(), "Validating configuration... OK")
}

func TestSettingsEmbeddingCmd_ValidationFails(t *testing.T) {
	m := &mockSettingsService{validateErr: domain.ErrUpstreamUnavailable}
	withSettings(t, m)

	rootCmd.SetIn(strings.NewReader("3\ntext-embedding-3-large\nsk-test-1234567890\n"))
	rootCmd.SetArgs([]string{"settings", "embedding"})
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, domain.AIProviderOpenAI, m.embedding)
	assert.Equal(t, "text-embedding-3-large", m.model)
	assert.Equal(t, "sk-test-1234567890", m.apiKey)
}

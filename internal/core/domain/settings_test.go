package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests provider recognition
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("mistral"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_RequiresAPIKey tests which providers need credentials
func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderGemini.IsLocal())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

// TestEmbeddingSettings_IsConfigured tests embedding configuration checks
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{
			name:     "ollama without key",
			settings: EmbeddingSettings{Provider: AIProviderOllama},
			expected: true,
		},
		{
			name:     "openai without key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI},
			expected: false,
		},
		{
			name:     "gemini with access token",
			settings: EmbeddingSettings{Provider: AIProviderGemini, AccessToken: "tok"},
			expected: true,
		},
		{
			name:     "gemini with api key",
			settings: EmbeddingSettings{Provider: AIProviderGemini, APIKey: "key"},
			expected: true,
		},
		{
			name:     "invalid provider",
			settings: EmbeddingSettings{Provider: "nope"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestLLMSettings_IsConfigured tests LLM configuration checks
func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	// Gemini serves embeddings only.
	assert.False(t, LLMSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, DefaultEmbeddingDimensions, s.Embedding.Dimensions)
	assert.Equal(t, "llama3.2", s.LLM.Model)
	assert.Equal(t, IndexBackendSQLite, s.Storage.Index)
	assert.Equal(t, EntityBackendSQLite, s.Storage.Entities)
	assert.Equal(t, CacheBackendLRU, s.Cache.Backend)
	assert.Equal(t, 5, s.Pipeline.K)
	assert.Equal(t, 3, s.Pipeline.ScreenshotCap)
	assert.Equal(t, 3, s.Pipeline.HistoryWindow)
	assert.Equal(t, ":8000", s.Server.Addr)
	assert.Contains(t, s.Server.AllowedOrigins, "http://localhost:5173")
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims["text-embedding-004"])
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])

	for provider, model := range DefaultEmbeddingModels() {
		_, ok := dims[model]
		assert.True(t, ok, "no dimensions for %s default %s", provider, model)
	}
}

func TestProviderLists(t *testing.T) {
	assert.NotContains(t, AllEmbeddingProviders(), AIProviderAnthropic)
	assert.NotContains(t, AllLLMProviders(), AIProviderGemini)
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
}

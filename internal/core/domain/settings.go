package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any OpenAI-compatible API (Groq, LM Studio).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Generative Language API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
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
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (OpenAI, Gemini).
	APIKey string

	// AccessToken is an OAuth bearer token used instead of an API key (Gemini).
	AccessToken string

	// Dimensions is the expected vector size. Zero means the model default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" && e.AccessToken == "" {
		return false
	}
	return true
}

// LLMSettings holds generation backend configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the text model name.
	Model string

	// VisionModel is used for multimodal requests when set.
	VisionModel string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond paces calls to the backend. Zero disables pacing.
	RequestsPerSecond float64

	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderGemini {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects the EmbeddingIndex implementation.
type IndexBackend string

// Index backends.
const (
	IndexBackendSQLite IndexBackend = "sqlite"
	IndexBackendMemory IndexBackend = "memory"
)

// EntityBackend selects the structured entity store implementation.
type EntityBackend string

// Entity store backends.
const (
	EntityBackendSQLite   EntityBackend = "sqlite"
	EntityBackendMemory   EntityBackend = "memory"
	EntityBackendPostgres EntityBackend = "postgres"
)

// CacheBackend selects the embedding cache implementation.
type CacheBackend string

// Cache backends.
const (
	CacheBackendNone  CacheBackend = "none"
	CacheBackendLRU   CacheBackend = "lru"
	CacheBackendRedis CacheBackend = "redis"
)

// StorageSettings selects and configures the backing stores.
type StorageSettings struct {
	Index    IndexBackend
	Entities EntityBackend

	// DataDir holds the SQLite database. Empty means ~/.canvasrag/data.
	DataDir string

	// EntitiesDSN is the Postgres connection string.
	EntitiesDSN string
}

// CacheSettings configures the embedding cache.
type CacheSettings struct {
	Backend   CacheBackend
	RedisAddr string
	Size      int
	TTL       time.Duration
}

// AssetSettings configures screenshot fetching.
type AssetSettings struct {
	// FetchTimeout bounds each asset fetch.
	FetchTimeout time.Duration

	// S3Region is used for s3:// asset URLs.
	S3Region string
}

// PipelineSettings tunes the retrieval pipeline.
type PipelineSettings struct {
	K             int
	ScreenshotCap int
	HistoryWindow int
}

// ServerSettings configures the HTTP transport.
type ServerSettings struct {
	Addr           string
	AllowedOrigins []string
}

// Settings is the resolved application configuration.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Cache     CacheSettings
	Assets    AssetSettings
	Pipeline  PipelineSettings
	Server    ServerSettings
	Scheduler SchedulerConfig
}

// DefaultSettings returns settings that work locally with Ollama.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "nomic-embed-text",
			Dimensions: DefaultEmbeddingDimensions,
		},
		LLM: LLMSettings{
			Provider:        AIProviderOllama,
			Model:           DefaultLLMModels()[AIProviderOllama],
			BreakerFailures: 5,
		},
		Storage: StorageSettings{
			Index:    IndexBackendSQLite,
			Entities: EntityBackendSQLite,
		},
		Cache: CacheSettings{
			Backend: CacheBackendLRU,
			Size:    1024,
			TTL:     24 * time.Hour,
		},
		Assets: AssetSettings{
			FetchTimeout: 10 * time.Second,
		},
		Pipeline: PipelineSettings{
			K:             DefaultRetrievalK,
			ScreenshotCap: DefaultScreenshotCap,
			HistoryWindow: DefaultHistoryWindow,
		},
		Server: ServerSettings{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:5000", "http://localhost:5173"},
		},
	}
}

// AllEmbeddingProviders returns the providers that can produce embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderGemini}
}

// AllLLMProviders returns the providers that can generate text.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedToken      = "embedding.access_token"
	keyIndexDims       = "index.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMVisionModel  = "llm.vision_model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMRPS          = "llm.requests_per_second"
	keyLLMBreaker      = "llm.breaker_failures"
	keyIndexBackend    = "index.backend"
	keyEntitiesBackend = "entities.backend"
	keyEntitiesDSN     = "entities.dsn"
	keyDataDir         = "storage.data_dir"
	keyCacheBackend    = "cache.backend"
	keyCacheRedisAddr  = "cache.redis_addr"
	keyCacheSize       = "cache.size"
	keyCacheTTL        = "cache.ttl_seconds"
	keyAssetsS3Region  = "assets.s3_region"
	keyAssetsTimeout   = "assets.fetch_timeout_seconds"
	keyPipelineK       = "pipeline.k"
	keyPipelineShots   = "pipeline.screenshot_cap"
	keyPipelineHistory = "pipeline.history_window"
	keyServerAddr      = "server.addr"
	keyServerOrigins   = "server.allowed_origins"
	keySchedInterval   = "scheduler.interval_minutes"
	keySchedOwners     = "scheduler.owners"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get resolves settings from the config store, falling back to defaults
// for absent or invalid values.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:    s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:       s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL), // empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyEmbedAPIKey),
			AccessToken: s.configStore.GetString(keyEmbedToken),
			Dimensions:  s.getInt(keyIndexDims, d.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			VisionModel:       s.configStore.GetString(keyLLMVisionModel),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRPS),
			BreakerFailures:   s.getInt(keyLLMBreaker, d.LLM.BreakerFailures),
		},
		Storage: domain.StorageSettings{
			Index:       s.getIndexBackend(d.Storage.Index),
			Entities:    s.getEntityBackend(d.Storage.Entities),
			DataDir:     s.configStore.GetString(keyDataDir),
			EntitiesDSN: s.configStore.GetString(keyEntitiesDSN),
		},
		Cache: domain.CacheSettings{
			Backend:   s.getCacheBackend(d.Cache.Backend),
			RedisAddr: s.configStore.GetString(keyCacheRedisAddr),
			Size:      s.getInt(keyCacheSize, d.Cache.Size),
			TTL:       s.getSeconds(keyCacheTTL, d.Cache.TTL),
		},
		Assets: domain.AssetSettings{
			FetchTimeout: s.getSeconds(keyAssetsTimeout, d.Assets.FetchTimeout),
			S3Region:     s.configStore.GetString(keyAssetsS3Region),
		},
		Pipeline: domain.PipelineSettings{
			K:             s.getInt(keyPipelineK, d.Pipeline.K),
			ScreenshotCap: ClampCap(s.getInt(keyPipelineShots, d.Pipeline.ScreenshotCap)),
			HistoryWindow: s.getInt(keyPipelineHistory, d.Pipeline.HistoryWindow),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, d.Server.Addr),
			AllowedOrigins: d.Server.AllowedOrigins,
		},
	}
	if origins := s.configStore.GetStringSlice(keyServerOrigins); len(origins) > 0 {
		settings.Server.AllowedOrigins = origins
	}
	if minutes := s.configStore.GetInt(keySchedInterval); minutes > 0 {
		settings.Scheduler.Interval = time.Duration(minutes) * time.Minute
	}
	for _, owner := range s.configStore.GetStringSlice(keySchedOwners) {
		settings.Scheduler.Owners = append(settings.Scheduler.Owners, domain.Owner(strings.TrimSpace(owner)))
	}

	return settings, nil
}

// Save persists the provider and pipeline settings. API keys are written
// only when set, so keys supplied through the environment stay out of the
// file.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyIndexDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMVisionModel, settings.LLM.VisionModel},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyIndexBackend, string(settings.Storage.Index)},
		{keyEntitiesBackend, string(settings.Storage.Entities)},
		{keyCacheBackend, string(settings.Cache.Backend)},
		{keyPipelineK, settings.Pipeline.K},
		{keyPipelineShots, settings.Pipeline.ScreenshotCap},
		{keyPipelineHistory, settings.Pipeline.HistoryWindow},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := map[string]string{
		keyEmbedAPIKey: settings.Embedding.APIKey,
		keyEmbedToken:  settings.Embedding.AccessToken,
		keyLLMAPIKey:   settings.LLM.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	defaults := domain.DefaultEmbeddingModels()
	if _, ok := defaults[provider]; !ok {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if provider.RequiresAPIKey() && apiKey == "" && settings.Embedding.AccessToken == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = defaults[provider]
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	defaults := domain.DefaultLLMModels()
	if _, ok := defaults[provider]; !ok {
		return fmt.Errorf("provider %s does not support chat generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = defaults[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the configured providers and backends are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if settings.Storage.Entities == domain.EntityBackendPostgres && settings.Storage.EntitiesDSN == "" {
		return fmt.Errorf("entities backend postgres requires %s", keyEntitiesDSN)
	}
	if settings.Cache.Backend == domain.CacheBackendRedis && settings.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires %s", keyCacheRedisAddr)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(context.Background(), &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(context.Background(), &settings.LLM)
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
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getIndexBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	switch b := domain.IndexBackend(s.configStore.GetString(keyIndexBackend)); b {
	case domain.IndexBackendSQLite, domain.IndexBackendMemory:
		return b
	default:
		return defaultVal
	}
}

func (s *SettingsService) getEntityBackend(defaultVal domain.EntityBackend) domain.EntityBackend {
	switch b := domain.EntityBackend(s.configStore.GetString(keyEntitiesBackend)); b {
	case domain.EntityBackendSQLite, domain.EntityBackendMemory, domain.EntityBackendPostgres:
		return b
	default:
		return defaultVal
	}
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	switch b := domain.CacheBackend(s.configStore.GetString(keyCacheBackend)); b {
	case domain.CacheBackendNone, domain.CacheBackendLRU, domain.CacheBackendRedis:
		return b
	default:
		return defaultVal
	}
}

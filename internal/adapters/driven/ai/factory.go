// Package ai provides factory functions for creating AI service adapters
// and the infrastructure that sits in front of them.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/assets/httpfetch"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/assets/router"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/assets/s3fetch"
	lrucache "github.com/custodia-labs/canvasrag/internal/adapters/driven/cache/lru"
	rediscache "github.com/custodia-labs/canvasrag/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/cached"
	geminiembed "github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/canvasrag/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/llm/guard"
	ollamallm "github.com/custodia-labs/canvasrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/canvasrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Cache            driven.EmbeddingCache // Already wrapped into EmbeddingService.
	AssetFetcher     driven.AssetFetcher
	Warnings         []string // Optional pieces that were left out.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	// The cached embedder closes its cache.
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	} else if r.Cache != nil {
		r.Cache.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds every AI-facing adapter from settings. The embedding
// and LLM providers must be configured and reachable; any failure there is
// returned. The cache and the S3 asset source are optional and only warn.
func Initialise(ctx context.Context, settings *domain.Settings) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: %s is not configured. Run 'canvasrag settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, providerName(settings.Embedding.Provider))
	}

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	if llm == nil {
		embedder.Close()
		return nil, fmt.Errorf("%w: %s is not configured. Run 'canvasrag settings llm' to fix",
			domain.ErrLLMUnavailable, providerName(settings.LLM.Provider))
	}
	result.LLMService = llm

	cache, err := CreateEmbeddingCache(ctx, settings.Cache)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding cache disabled: %v", err))
		cache = nil
	}
	result.Cache = cache
	if cache != nil {
		embedder = cached.New(embedder, cache, settings.Cache.TTL)
	}
	result.EmbeddingService = embedder

	fetcher, err := CreateAssetFetcher(ctx, settings.Assets)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("s3 assets disabled: %v", err))
	}
	result.AssetFetcher = fetcher

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

func providerName(p domain.AIProvider) string {
	if p == "" {
		return "provider"
	}
	return string(p)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'canvasrag settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'canvasrag settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates a guarded LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'canvasrag settings llm' to fix",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'canvasrag settings llm' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderGemini:
		return createGeminiEmbedding(ctx, settings)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use gemini, ollama or openai")

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings,
// wrapped in a rate limiter and circuit breaker.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaLLM(settings)

	case domain.AIProviderOpenAI:
		svc, err = createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		svc, err = createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return guard.New(svc, guard.Config{
		Name:              string(settings.Provider),
		RequestsPerSecond: settings.RequestsPerSecond,
		MaxFailures:       settings.BreakerFailures,
	}), nil
}

// CreateEmbeddingCache creates the configured embedding cache.
// Returns nil for the none backend.
func CreateEmbeddingCache(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error) {
	switch settings.Backend {
	case domain.CacheBackendNone, "":
		return nil, nil

	case domain.CacheBackendLRU:
		cache, err := lrucache.New(settings.Size, settings.TTL)
		if err != nil {
			return nil, err
		}
		return cache, nil

	case domain.CacheBackendRedis:
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		cache, err := rediscache.New(pingCtx, rediscache.Config{
			Addr:       settings.RedisAddr,
			DefaultTTL: settings.TTL,
		})
		if err != nil {
			return nil, err
		}
		return cache, nil

	default:
		return nil, fmt.Errorf("%w: cache backend %s", domain.ErrUnsupportedType, settings.Backend)
	}
}

// CreateAssetFetcher routes http(s) URLs to the HTTP fetcher and, when a
// region is configured, s3:// URLs to S3. The returned fetcher is usable
// even when the S3 client fails to initialise.
func CreateAssetFetcher(ctx context.Context, settings domain.AssetSettings) (driven.AssetFetcher, error) {
	r := router.New().Handle(httpfetch.New(settings.FetchTimeout), "http", "https")
	if settings.S3Region == "" {
		return r, nil
	}

	s3, err := s3fetch.New(ctx, s3fetch.Config{
		Region:  settings.S3Region,
		Timeout: settings.FetchTimeout,
	})
	if err != nil {
		return r, err
	}
	return r.Handle(s3, "s3"), nil
}

// dimensionsFor prefers explicit settings, then the known model size.
func dimensionsFor(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := dimensionsFor(settings)
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensionsFor(settings),
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
		APIKey:      settings.APIKey,
		AccessToken: settings.AccessToken,
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		Dimensions:  dimensionsFor(settings),
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		VisionModel: settings.VisionModel,
	})
}

// createOpenAILLM creates an OpenAI-compatible LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:      settings.APIKey,
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		VisionModel: settings.VisionModel,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:      settings.APIKey,
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		VisionModel: settings.VisionModel,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

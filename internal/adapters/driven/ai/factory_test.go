package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/assets/router"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/llm/guard"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// ollamaServer answers the Ollama endpoints the adapters ping.
func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		assert.NotPanics(t, result.Close)
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
		wantDims    int
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantDims: 768,
		},
		{
			name: "openai provider honours explicit dimensions",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderOpenAI,
				APIKey:     "test-key",
				Model:      "text-embedding-3-small",
				Dimensions: 768,
			},
			wantDims: 768,
		},
		{
			name: "gemini provider with api key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
				Model:    "text-embedding-004",
			},
			wantDims: 768,
		},
		{
			name: "gemini provider with access token",
			settings: &domain.EmbeddingSettings{
				Provider:    domain.AIProviderGemini,
				AccessToken: "ya29.token",
			},
			wantDims: 768,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.LLMSettings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "gemini is embedding only",
			settings: &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantNil:  true,
		},
		{
			name:     "openai without key is not configured",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name: "ollama provider creates guarded service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				Model:    "llama3.2",
			},
		},
		{
			name: "openai provider creates guarded service",
			settings: &domain.LLMSettings{
				Provider:          domain.AIProviderOpenAI,
				APIKey:            "test-key",
				Model:             "gpt-4o-mini",
				VisionModel:       "gpt-4o",
				RequestsPerSecond: 2,
				BreakerFailures:   3,
			},
		},
		{
			name: "anthropic provider creates guarded service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()

			guarded, ok := svc.(*guard.LLMService)
			require.True(t, ok, "LLM service should be wrapped by the guard")
			assert.Equal(t, "closed", guarded.State())
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingCache(t *testing.T) {
	ctx := context.Background()

	cache, err := CreateEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendNone})
	require.NoError(t, err)
	assert.Nil(t, cache)

	cache, err = CreateEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendLRU, Size: 8, TTL: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, cache)
	require.NoError(t, cache.Set(ctx, "k", []float32{1}, 0))
	_, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.NoError(t, cache.Close())

	mr := miniredis.RunT(t)
	cache, err = CreateEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.NoError(t, cache.Close())

	cache, err = CreateEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendRedis})
	assert.Error(t, err)
	assert.Nil(t, cache)

	_, err = CreateEmbeddingCache(ctx, domain.CacheSettings{Backend: "memcached"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestCreateAssetFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	defer server.Close()

	fetcher, err := CreateAssetFetcher(context.Background(), domain.AssetSettings{FetchTimeout: time.Second})
	require.NoError(t, err)
	_, ok := fetcher.(*router.Router)
	require.True(t, ok)

	asset, err := fetcher.Fetch(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), asset.Data)

	_, err = fetcher.Fetch(context.Background(), "s3://bucket/a.png")
	assert.ErrorIs(t, err, domain.ErrAssetFetch)
}

func TestInitialise(t *testing.T) {
	t.Run("reachable providers are wired with cache", func(t *testing.T) {
		ollama := ollamaServer(t, http.StatusOK)
		settings := domain.DefaultSettings()
		settings.Embedding.BaseURL = ollama.URL
		settings.LLM.BaseURL = ollama.URL

		result, err := Initialise(context.Background(), &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.Empty(t, result.Warnings)
		require.NotNil(t, result.EmbeddingService)
		_, isCached := result.EmbeddingService.(*cached.EmbeddingService)
		assert.True(t, isCached)
		require.NotNil(t, result.LLMService)
		assert.NotNil(t, result.Cache)
		assert.NotNil(t, result.AssetFetcher)
	})

	t.Run("unavailable cache only warns", func(t *testing.T) {
		ollama := ollamaServer(t, http.StatusOK)
		settings := domain.DefaultSettings()
		settings.Embedding.BaseURL = ollama.URL
		settings.LLM.BaseURL = ollama.URL
		settings.Cache.Backend = domain.CacheBackend("memcached")

		result, err := Initialise(context.Background(), &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.Nil(t, result.Cache)
		require.NotNil(t, result.EmbeddingService)
		_, isCached := result.EmbeddingService.(*cached.EmbeddingService)
		assert.False(t, isCached)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "embedding cache disabled")
	})

	tests := []struct {
		name    string
		status  int
		mutate  func(*domain.Settings)
		wantErr error
		wantMsg string
	}{
		{
			name:    "unreachable embedding provider",
			status:  http.StatusServiceUnavailable,
			mutate:  func(*domain.Settings) {},
			wantErr: domain.ErrEmbeddingUnavailable,
			wantMsg: "service unreachable",
		},
		{
			name:   "embedding api key missing",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.Embedding.Provider = domain.AIProviderGemini
				s.Embedding.APIKey = ""
			},
			wantErr: domain.ErrEmbeddingUnavailable,
			wantMsg: "gemini is not configured",
		},
		{
			name:   "llm api key missing",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.LLM.Provider = domain.AIProviderOpenAI
				s.LLM.APIKey = ""
			},
			wantErr: domain.ErrLLMUnavailable,
			wantMsg: "canvasrag settings llm",
		},
		{
			name:   "no llm provider",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.LLM.Provider = ""
			},
			wantErr: domain.ErrLLMUnavailable,
			wantMsg: "provider is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ollama := ollamaServer(t, tt.status)
			settings := domain.DefaultSettings()
			settings.Embedding.BaseURL = ollama.URL
			settings.LLM.BaseURL = ollama.URL
			tt.mutate(&settings)

			result, err := Initialise(context.Background(), &settings)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

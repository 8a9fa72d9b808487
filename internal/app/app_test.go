package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

type stubSettingsService struct {
	settings domain.Settings
	err      error
}

func (s *stubSettingsService) Get() (*domain.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := s.settings
	return &out, nil
}

func (s *stubSettingsService) Save(*domain.Settings) error { return nil }
func (s *stubSettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error {
	return nil
}
func (s *stubSettingsService) SetLLMProvider(domain.AIProvider, string, string) error { return nil }
func (s *stubSettingsService) Validate() error { return nil }
func (s *stubSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }
func (s *stubSettingsService) ValidateEmbeddingConfig() error { return nil }
func (s *stubSettingsService) ValidateLLMConfig() error { return nil }

// localSettings selects in-memory stores and points both providers at a
// stub Ollama that answers every request with status.
func localSettings(t *testing.T, status int) domain.Settings {
	t.Helper()
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(ollama.Close)

	s := domain.DefaultSettings()
	s.Storage.Index = domain.IndexBackendMemory
	s.Storage.Entities = domain.EntityBackendMemory
	s.Cache.Backend = domain.CacheBackendNone
	s.Embedding.Provider = domain.AIProviderOllama
	s.Embedding.BaseURL = ollama.URL
	s.LLM.Provider = domain.AIProviderOllama
	s.LLM.BaseURL = ollama.URL
	s.Server.Addr = "127.0.0.1:9000"
	return s
}

func TestBuild(t *testing.T) {
	svc, cleanup, err := Build(context.Background(),
		&stubSettingsService{settings: localSettings(t, http.StatusOK)},
		Options{PromptDir: t.TempDir()})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Chat)
	assert.NotNil(t, svc.Index)
	assert.NotNil(t, svc.Analysis)
	assert.NotNil(t, svc.Context)
	assert.NotNil(t, svc.Entities)
	assert.NotNil(t, svc.Writable)
	assert.Equal(t, "127.0.0.1:9000", svc.Serve.Server.Addr)
	assert.NotNil(t, svc.Serve.Prompts)
	assert.NotNil(t, svc.Serve.Metrics)
}

func TestBuild_ProbesReportHealthy(t *testing.T) {
	svc, cleanup, err := Build(context.Background(),
		&stubSettingsService{settings: localSettings(t, http.StatusOK)},
		Options{PromptDir: t.TempDir()})
	require.NoError(t, err)
	defer cleanup()

	names := make([]string, 0, len(svc.Serve.Probes))
	for _, p := range svc.Serve.Probes {
		require.NotNil(t, p.Check, p.Name)
		assert.NoError(t, p.Check(context.Background()), p.Name)
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"index", "entities", "llm", "embedding"}, names)
}

func TestBuild_FailsAtStartup(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o600))

	tests := []struct {
		name    string
		status  int
		mutate  func(*domain.Settings)
		wantErr error
	}{
		{
			name:    "unknown index backend",
			status:  http.StatusOK,
			mutate:  func(s *domain.Settings) { s.Storage.Index = domain.IndexBackend("faiss") },
			wantErr: domain.ErrUnsupportedType,
		},
		{
			name:    "unknown entity backend",
			status:  http.StatusOK,
			mutate:  func(s *domain.Settings) { s.Storage.Entities = domain.EntityBackend("cassandra") },
			wantErr: domain.ErrUnsupportedType,
		},
		{
			name:   "data dir is a file",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.Storage.Index = domain.IndexBackendSQLite
				s.Storage.DataDir = filepath.Join(notADir, "data")
			},
			wantErr: domain.ErrIndexUnavailable,
		},
		{
			name:   "embedding credentials missing",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.Embedding.Provider = domain.AIProviderOpenAI
				s.Embedding.APIKey = ""
			},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name:   "llm credentials missing",
			status: http.StatusOK,
			mutate: func(s *domain.Settings) {
				s.LLM.Provider = domain.AIProviderAnthropic
				s.LLM.APIKey = ""
			},
			wantErr: domain.ErrLLMUnavailable,
		},
		{
			name:    "providers unreachable",
			status:  http.StatusServiceUnavailable,
			mutate:  func(*domain.Settings) {},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := localSettings(t, tt.status)
			tt.mutate(&settings)

			svc, cleanup, err := Build(context.Background(),
				&stubSettingsService{settings: settings},
				Options{PromptDir: t.TempDir()})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, svc)
			assert.Nil(t, cleanup)
		})
	}
}

func TestBuild_OptionalPiecesDegrade(t *testing.T) {
	settings := localSettings(t, http.StatusOK)
	settings.Cache.Backend = domain.CacheBackend("memcached")

	svc, cleanup, err := Build(context.Background(),
		&stubSettingsService{settings: settings},
		Options{PromptDir: t.TempDir()})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Chat)
}

func TestBuild_SharesMetricsSink(t *testing.T) {
	sink := prometheus.NewSink()

	svc, cleanup, err := Build(context.Background(),
		&stubSettingsService{settings: localSettings(t, http.StatusOK)},
		Options{PromptDir: t.TempDir(), Metrics: sink})
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	svc.Serve.Metrics.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBuild_Scheduler(t *testing.T) {
	settings := localSettings(t, http.StatusOK)

	svc, cleanup, err := Build(context.Background(),
		&stubSettingsService{settings: settings},
		Options{PromptDir: t.TempDir()})
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, svc.Serve.Scheduler)

	settings.Scheduler = domain.SchedulerConfig{Interval: time.Hour, Owners: []domain.Owner{"alice"}}
	svc, cleanup, err = Build(context.Background(),
		&stubSettingsService{settings: settings},
		Options{PromptDir: t.TempDir()})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, svc.Serve.Scheduler)
}

func TestBuild_SettingsError(t *testing.T) {
	_, _, err := Build(context.Background(),
		&stubSettingsService{err: errors.New("corrupt config")},
		Options{PromptDir: t.TempDir()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading settings: corrupt config")
}

func TestBuild_RequiresSettingsService(t *testing.T) {
	_, _, err := Build(context.Background(), nil, Options{})

	assert.Error(t, err)
}

func TestNewSettingsService(t *testing.T) {
	svc, err := NewSettingsService(t.TempDir())
	require.NoError(t, err)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Pipeline.K, settings.Pipeline.K)
}

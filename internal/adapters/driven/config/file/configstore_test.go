package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a store in a temp dir that sees only the given environment.
func newTestStore(t *testing.T, env map[string]string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("llm.model", "llama3.2"))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "llama3.2", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("pipeline.k", 7))
	require.NoError(t, store.Set("llm.requests_per_second", 2.5))
	require.NoError(t, store.Set("cache.enabled", true))
	require.NoError(t, store.Set("server.allowed_origins", []string{"http://a", "http://b"}))

	assert.Equal(t, 7, store.GetInt("pipeline.k"))
	assert.InDelta(t, 2.5, store.GetFloat("llm.requests_per_second"), 1e-9)
	assert.InDelta(t, 7.0, store.GetFloat("pipeline.k"), 1e-9)
	assert.True(t, store.GetBool("cache.enabled"))
	assert.Equal(t, []string{"http://a", "http://b"}, store.GetStringSlice("server.allowed_origins"))

	// Wrong type
	assert.Equal(t, "", store.GetString("pipeline.k"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
}

// TestConfigStore_EnvOverride tests that environment variables win over the file
func TestConfigStore_EnvOverride(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"CANVASRAG_LLM_MODEL":              "gpt-4o-mini",
		"CANVASRAG_PIPELINE_K":             "9",
		"CANVASRAG_LLM_REQUESTS_PER_SECOND": "1.5",
		"CANVASRAG_SERVER_ALLOWED_ORIGINS":  "http://x, http://y",
		"CANVASRAG_CACHE_ENABLED":          "true",
	})
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("pipeline.k", 5))

	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.Equal(t, 9, store.GetInt("pipeline.k"))
	assert.InDelta(t, 1.5, store.GetFloat("llm.requests_per_second"), 1e-9)
	assert.Equal(t, []string{"http://x", "http://y"}, store.GetStringSlice("server.allowed_origins"))
	assert.True(t, store.GetBool("cache.enabled"))
}

func TestConfigStore_EnvAliases(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"GEMINI_API_KEY": "gem-key",
		"GROQ_API_KEY":   "groq-key",
		"DATABASE_URL":   "postgres://localhost/db",
	})

	assert.Equal(t, "gem-key", store.GetString("embedding.api_key"))
	assert.Equal(t, "groq-key", store.GetString("llm.api_key"))
	assert.Equal(t, "postgres://localhost/db", store.GetString("entities.dsn"))

	// The prefixed form takes precedence over aliases
	store.lookup = func(k string) (string, bool) {
		if k == "CANVASRAG_LLM_API_KEY" {
			return "explicit", true
		}
		if k == "GROQ_API_KEY" {
			return "groq-key", true
		}
		return "", false
	}
	assert.Equal(t, "explicit", store.GetString("llm.api_key"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "CANVASRAG_EMBEDDING_API_KEY", EnvKey("embedding.api_key"))
	assert.Equal(t, "CANVASRAG_ASSETS_FETCH_TIMEOUT_SECONDS", EnvKey("assets.fetch_timeout_seconds"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("index.backend", "sqlite"))
	require.NoError(t, store1.Set("pipeline.k", 42))
	require.NoError(t, store1.Set("cache.enabled", true))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	store2.lookup = func(string) (string, bool) { return "", false }

	assert.Equal(t, "sqlite", store2.GetString("index.backend"))
	assert.Equal(t, 42, store2.GetInt("pipeline.k"))
	assert.True(t, store2.GetBool("cache.enabled"))
}

func TestConfigStore_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("[llm]\nprovider = \"anthropic\"\nmodel = \"claude\"\n\n[pipeline]\nk = 3\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	store.lookup = nil

	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, "claude", store.GetString("llm.model"))
	assert.Equal(t, 3, store.GetInt("pipeline.k"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# comment\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	store.lookup = nil

	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.Set("channel", make(chan int))

	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t, nil)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_ = store.GetString(key)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

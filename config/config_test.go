package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every recognized variable for the duration of the test.
// godotenv never overrides a variable that is set, even to "".
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvStorageDriver, EnvStoragePath, EnvEmbeddingHost, EnvCompletionHost,
		EnvEmbeddingModel, EnvCompletionModel, EnvAPIKey, EnvPort, EnvGinMode,
		EnvCORSOrigins, EnvEmbeddingDelayMS, EnvOTLPEndpoint, EnvServiceName,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 350*time.Millisecond, cfg.Ingestion.EmbeddingDelay)
	assert.Equal(t, float32(0.7), cfg.Retrieval.SearchThreshold)
	assert.Equal(t, float32(0.6), cfg.Retrieval.ChatThreshold)
	assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	assert.Equal(t, 3, cfg.AI.ParseAttempts)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
storage:
  driver: sqlite
  path: /var/lib/deckdex/decks.db
ingestion:
  embedding_delay: 1s
server:
  cors_origins: ["https://a.example", "https://b.example"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DriverSqlite, cfg.Storage.Driver)
		assert.Equal(t, "/var/lib/deckdex/decks.db", cfg.Storage.Path)
		assert.Equal(t, time.Second, cfg.Ingestion.EmbeddingDelay)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "gpt-4o-mini", cfg.AI.CompletionModel)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Storage.Driver = DriverSqlite
	cfg.AI.APIKey = "sk-secret"
	cfg.Ingestion.EmbeddingDelay = 2 * time.Second
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret", "api key stays out of the file")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSqlite, loaded.Storage.Driver)
	assert.Equal(t, 2*time.Second, loaded.Ingestion.EmbeddingDelay)
	assert.Empty(t, loaded.AI.APIKey)
}

func TestResolve(t *testing.T) {
	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o644))

		t.Setenv(EnvPort, "9100")
		t.Setenv(EnvAPIKey, "sk-env")
		t.Setenv(EnvCORSOrigins, "https://x.example, https://y.example,")
		t.Setenv(EnvEmbeddingDelayMS, "0")
		t.Setenv(EnvEmbeddingHost, "http://localhost:11434")

		cfg, err := Resolve(path, "")
		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.Server.Port)
		assert.Equal(t, "sk-env", cfg.AI.APIKey)
		assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.Server.CORSOrigins)
		assert.Zero(t, cfg.Ingestion.EmbeddingDelay)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AIConfig().EmbeddingHost)
	})

	t.Run("dotenv file is loaded", func(t *testing.T) {
		clearEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("DECKDEX_STORAGE_DRIVER=sqlite\nOTEL_SERVICE_NAME=deckdex-test\n"), 0o644))

		cfg, err := Resolve("", envFile)
		require.NoError(t, err)
		assert.Equal(t, DriverSqlite, cfg.Storage.Driver)
		assert.Equal(t, "deckdex-test", cfg.Telemetry.ServiceName)
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		clearEnv(t)
		_, err := Resolve("", filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)
	})

	t.Run("invalid integer keeps default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvEmbeddingDelayMS, "soon")

		cfg, err := Resolve("", "")
		require.NoError(t, err)
		assert.Equal(t, 350*time.Millisecond, cfg.Ingestion.EmbeddingDelay)
	})

	t.Run("invalid driver fails validation", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvStorageDriver, "postgres")

		_, err := Resolve("", "")
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "postgres")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"blank port", func(c *Config) { c.Server.Port = "" }, "port"},
		{"unknown gin mode", func(c *Config) { c.Server.GinMode = "verbose" }, "gin mode"},
		{"negative delay", func(c *Config) { c.Ingestion.EmbeddingDelay = -time.Second }, "embedding delay"},
		{"search threshold above one", func(c *Config) { c.Retrieval.SearchThreshold = 1.5 }, "search threshold"},
		{"negative chat threshold", func(c *Config) { c.Retrieval.ChatThreshold = -0.1 }, "chat threshold"},
		{"missing embedding model", func(c *Config) { c.AI.EmbeddingModel = "" }, "EmbeddingModel"},
		{"zero parse attempts", func(c *Config) { c.AI.ParseAttempts = 0 }, "ParseAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

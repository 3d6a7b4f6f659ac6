package config

import (
	"testing"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("DOCGPT_PORT", "9090")
	t.Setenv("DOCGPT_DEBUG", "true")
	t.Setenv("DOCGPT_PROFILE", "private")
	t.Setenv("DOCGPT_CACHE_ROOT", "/tmp/docgpt")
	t.Setenv("DOCGPT_CHUNK_SIZE", "300")
	t.Setenv("DOCGPT_CHUNK_OVERLAP", "50")
	t.Setenv("DOCGPT_TOP_K", "6")
	t.Setenv("DOCGPT_EMBED_BATCH_SIZE", "250")
	t.Setenv("DOCGPT_SESSION_TTL", "5m")
	t.Setenv("DOCGPT_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, domain.ProfilePrivate, cfg.Profile)
	assert.Equal(t, "/tmp/docgpt", cfg.CacheRoot)
	assert.Equal(t, 300, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 6, cfg.TopK)
	assert.Equal(t, 250, cfg.EmbedBatchSize)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
	assert.False(t, cfg.HasS3())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCGPT_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, domain.ProfileDocument, cfg.Profile)
	assert.Equal(t, "./.cache", cfg.CacheRoot)
	assert.Equal(t, 600, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, "\n", cfg.ChunkSeparator)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, 1000, cfg.EmbedBatchSize)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-6)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, IndexMemory, cfg.IndexBackend)
	assert.Equal(t, "docgpt-cache", cfg.S3Bucket)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
}

func TestLoad_UnprefixedAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-plain")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", cfg.OpenAIAPIKey)
}

func TestLoad_DocumentProfileRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DOCGPT_OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeConfig))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func validConfig() *Config {
	return &Config{
		Profile:        domain.ProfileDocument,
		ChunkSize:      600,
		ChunkOverlap:   100,
		TopK:           4,
		OpenAIAPIKey:   "sk-test",
		StorageBackend: StorageLocal,
		IndexBackend:   IndexMemory,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad profile", func(c *Config) { c.Profile = "cloud" }, "PROFILE"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "CHUNK_SIZE"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 600 }, "CHUNK_OVERLAP"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "TOP_K"},
		{"negative embed batch", func(c *Config) { c.EmbedBatchSize = -1 }, "EMBED_BATCH_SIZE"},
		{"s3 without endpoint", func(c *Config) { c.StorageBackend = StorageS3 }, "S3_ENDPOINT"},
		{"unknown storage", func(c *Config) { c.StorageBackend = "gcs" }, "STORAGE_BACKEND"},
		{"pgvector without database", func(c *Config) { c.IndexBackend = IndexPgvector }, "DATABASE_URL"},
		{"unknown index", func(c *Config) { c.IndexBackend = "faiss" }, "INDEX_BACKEND"},
		{"private without key", func(c *Config) {
			c.Profile = domain.ProfilePrivate
			c.OpenAIAPIKey = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidSettings)
		})
	}
}

func TestBackendBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIBaseURL = "https://proxy.example.com/v1"
	cfg.OllamaBaseURL = "http://localhost:11434/v1"

	assert.Equal(t, "https://proxy.example.com/v1", cfg.BackendBaseURL())

	cfg.Profile = domain.ProfilePrivate
	assert.Equal(t, "http://localhost:11434/v1", cfg.BackendBaseURL())
}

func TestBackendAPIKey(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "sk-test", cfg.BackendAPIKey())

	cfg.Profile = domain.ProfilePrivate
	cfg.OpenAIAPIKey = ""
	assert.Equal(t, "ollama", cfg.BackendAPIKey())
}

func TestHasS3(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.HasS3())

	cfg.StorageBackend = StorageS3
	assert.True(t, cfg.HasS3())
}

func TestParse_SkipsValidation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DOCGPT_OPENAI_API_KEY", "")
	t.Setenv("DOCGPT_CHUNK_SEPARATOR", `\n\n`)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "\n\n", cfg.ChunkSeparator)
	assert.Error(t, cfg.Validate())
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	IndexMemory   = "memory"
	IndexPgvector = "pgvector"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	Profile   domain.Profile `envconfig:"PROFILE" default:"document"`
	CacheRoot string         `envconfig:"CACHE_ROOT" default:"./.cache"`

	ChunkSize      int     `envconfig:"CHUNK_SIZE" default:"600"`
	ChunkOverlap   int     `envconfig:"CHUNK_OVERLAP" default:"100"`
	ChunkSeparator string  `envconfig:"CHUNK_SEPARATOR" default:"\\n"`
	TopK           int     `envconfig:"TOP_K" default:"4"`
	Temperature    float32 `envconfig:"TEMPERATURE" default:"0.1"`
	EmbedBatchSize int     `envconfig:"EMBED_BATCH_SIZE" default:"1000"`

	// Unprefixed OPENAI_API_KEY is honoured as a fallback.
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL"`
	OllamaBaseURL  string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434/v1"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"docgpt-cache"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`

	IndexBackend  string `envconfig:"INDEX_BACKEND" default:"memory"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`
}

func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without validating, so callers can apply
// overrides (CLI flags) before calling Validate.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCGPT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.ChunkSeparator = unescape(cfg.ChunkSeparator)
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate reports the first inconsistent setting as a CONFIG_ERROR.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return domain.Wrap(domain.ErrInvalidSettings, fmt.Errorf(format, args...))
	}

	if !c.Profile.IsValid() {
		return invalid("PROFILE must be %q or %q, got %q", domain.ProfileDocument, domain.ProfilePrivate, c.Profile)
	}
	if c.ChunkSize <= 0 {
		return invalid("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return invalid("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.TopK <= 0 {
		return invalid("TOP_K must be positive")
	}
	if c.EmbedBatchSize < 0 {
		return invalid("EMBED_BATCH_SIZE must not be negative")
	}
	if c.Profile == domain.ProfileDocument && !c.HasOpenAI() {
		return invalid("OPENAI_API_KEY is required for the %s profile", c.Profile)
	}

	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return invalid("STORAGE_BACKEND=s3 requires S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY")
		}
	default:
		return invalid("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.IndexBackend {
	case IndexMemory:
	case IndexPgvector:
		if c.DatabaseURL == "" {
			return invalid("INDEX_BACKEND=pgvector requires DATABASE_URL")
		}
	default:
		return invalid("unknown INDEX_BACKEND %q", c.IndexBackend)
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.StorageBackend == StorageS3
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) UsesPgvector() bool {
	return c.IndexBackend == IndexPgvector
}

// BackendBaseURL is the OpenAI-compatible endpoint for the active profile.
// An empty value means the public OpenAI API.
func (c *Config) BackendBaseURL() string {
	if c.Profile == domain.ProfilePrivate {
		return c.OllamaBaseURL
	}
	return c.OpenAIBaseURL
}

// BackendAPIKey returns the key sent to the backend. Ollama ignores it but
// the client still needs a non-empty bearer token.
func (c *Config) BackendAPIKey() string {
	if c.Profile == domain.ProfilePrivate && c.OpenAIAPIKey == "" {
		return "ollama"
	}
	return c.OpenAIAPIKey
}

func unescape(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(s)
}

package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/docgpt/internal/config"
	"github.com/cloo-solutions/docgpt/internal/database"
	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/extract"
	"github.com/cloo-solutions/docgpt/internal/openai"
	"github.com/cloo-solutions/docgpt/internal/repository"
	"github.com/cloo-solutions/docgpt/internal/service"
	"github.com/cloo-solutions/docgpt/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// cacheStore is what the pipeline needs from a storage backend.
type cacheStore interface {
	service.FileStore
	service.ByteStore
}

// App holds the collaborators shared by every command.
type App struct {
	Config   *config.Config
	Sessions *service.SessionManager
	Pipeline *service.Pipeline

	pool *pgxpool.Pool
}

// NewApp wires storage, the model backend and the index from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newCacheStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.BackendAPIKey(),
		BaseURL:        cfg.BackendBaseURL(),
		EmbeddingModel: cfg.EmbeddingModel,
	})

	app := &App{
		Config:   cfg,
		Sessions: service.NewSessionManager(cfg.Profile, cfg.SessionTTL),
	}

	var indexes service.IndexBuilder = service.MemoryIndexBuilder{}
	if cfg.UsesPgvector() {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		app.pool = pool
		indexes = repository.NewPgvectorIndexBuilder(pool)
		log.Println("index: pgvector")
	}

	splitter := service.Splitter{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Separator:    cfg.ChunkSeparator,
	}
	if err := splitter.Validate(); err != nil {
		app.Close()
		return nil, err
	}

	app.Pipeline = service.NewPipeline(service.PipelineDeps{
		Loader:         service.NewLoader(store, cfg.Profile.FilesDir()),
		Extractor:      extract.New(),
		Splitter:       splitter,
		Embedders:      embedderFactory(cfg.Profile, client),
		CacheStore:     store,
		EmbeddingsDir:  cfg.Profile.EmbeddingsDir(),
		Indexes:        indexes,
		Chat:           service.NewChatClient(client).WithTemperature(cfg.Temperature),
		TopK:           cfg.TopK,
		EmbedBatchSize: cfg.EmbedBatchSize,
	})
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// embedderFactory embeds with the configured model for the document profile
// and with the selected chat model for the private profile.
func embedderFactory(profile domain.Profile, client *openai.Client) service.EmbedderFactory {
	if profile == domain.ProfilePrivate {
		return func(model domain.ModelOption) service.Embedder {
			return client.WithEmbeddingModel(model.ID)
		}
	}
	return func(domain.ModelOption) service.Embedder {
		return client
	}
}

func newCacheStore(ctx context.Context, cfg *config.Config) (cacheStore, error) {
	if !cfg.HasS3() {
		store, err := storage.NewLocalStore(cfg.CacheRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache root: %w", err)
		}
		log.Printf("storage: local cache at %s", cfg.CacheRoot)
		return store, nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("storage: S3 bucket '%s' ready", cfg.S3Bucket)
	return client, nil
}

package repository

import (
	"context"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgvectorIndexBuilder keeps each document's vectors in Postgres.
type PgvectorIndexBuilder struct {
	chunks *ChunkRepository
	tx     *TxRunner
}

func NewPgvectorIndexBuilder(pool *pgxpool.Pool) *PgvectorIndexBuilder {
	return &PgvectorIndexBuilder{
		chunks: NewChunkRepository(pool),
		tx:     NewTxRunner(pool),
	}
}

// Build replaces the rows of namespace in one transaction.
func (b *PgvectorIndexBuilder) Build(ctx context.Context, namespace string, entries []domain.VectorIndexEntry, embedder service.QueryEmbedder) (service.Retriever, error) {
	err := b.tx.WithTx(ctx, func(chunks *ChunkRepository) error {
		return chunks.ReplaceChunks(ctx, namespace, entries)
	})
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexStore, err)
	}

	return &PgvectorRetriever{
		chunks:    b.chunks,
		namespace: namespace,
		embedder:  embedder,
	}, nil
}

// PgvectorRetriever answers queries for one namespace.
type PgvectorRetriever struct {
	chunks    *ChunkRepository
	namespace string
	embedder  service.QueryEmbedder
}

func (r *PgvectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		if domain.Code(err) == "" {
			err = domain.Wrap(domain.ErrEmbedding, err)
		}
		return nil, err
	}

	chunks, err := r.chunks.SearchByEmbedding(ctx, r.namespace, vec, k)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexStore, err)
	}
	return chunks, nil
}

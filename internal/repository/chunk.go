package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository stores indexed document chunks with their embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a namespace and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, namespace string, entries []domain.VectorIndexEntry) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE namespace = $1`, namespace)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO document_chunks
				(namespace, chunk_index, start_offset, end_offset, content, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6)`,
			namespace,
			e.Chunk.Index,
			e.Chunk.Start,
			e.Chunk.End,
			e.Chunk.Text,
			pgvector.NewVector(e.Embedding),
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", entries[i].Chunk.Index, err)
		}
	}
	return results.Close()
}

// SearchByEmbedding returns the k chunks of namespace nearest to embedding
// by cosine distance, ties broken by chunk index.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, namespace string, embedding []float32, k int) ([]domain.Chunk, error) {
	if k <= 0 {
		return []domain.Chunk{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT chunk_index, start_offset, end_offset, content
		FROM document_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2, chunk_index
		LIMIT $3`,
		namespace, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, k)
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.Index, &c.Start, &c.End, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// Count returns the number of chunks stored for namespace.
func (r *ChunkRepository) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks WHERE namespace = $1`, namespace).Scan(&n)
	return n, err
}

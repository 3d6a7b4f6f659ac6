package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/storage"
)

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ByteStore is a key/value byte store. Get returns storage.ErrNotFound on a miss.
type ByteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// CacheStats counts cache lookups since the embedder was created.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// DefaultEmbedBatchSize is the most texts sent in one embedding request.
const DefaultEmbedBatchSize = 1000

// CachedEmbedder memoizes document embeddings in a ByteStore under
// <namespace>/<sha256(text)>. Query embeddings pass straight through.
type CachedEmbedder struct {
	underlying Embedder
	store      ByteStore
	namespace  string
	batchSize  int

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbedder wraps underlying with a cache rooted at namespace.
func NewCachedEmbedder(underlying Embedder, store ByteStore, namespace string) *CachedEmbedder {
	return &CachedEmbedder{
		underlying: underlying,
		store:      store,
		namespace:  namespace,
		batchSize:  DefaultEmbedBatchSize,
	}
}

// WithBatchSize sets the per-request text limit. Values below one keep the
// default.
func (c *CachedEmbedder) WithBatchSize(n int) *CachedEmbedder {
	if n > 0 {
		c.batchSize = n
	}
	return c
}

// Key returns the store key for text.
func (c *CachedEmbedder) Key(text string) string {
	return storage.Key(c.namespace, domain.ContentHash([]byte(text)))
}

// Stats returns hit and miss counts.
func (c *CachedEmbedder) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// EmbedDocuments returns one vector per text in input order. Cached vectors
// are read back as stored; the misses are deduplicated and computed in
// batches of at most the batch size, then written to the store.
func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string

	for i, text := range texts {
		key := c.Key(text)
		if idx, seen := missing[key]; seen {
			missing[key] = append(idx, i)
			continue
		}

		vec, err := c.load(ctx, key)
		if err == nil {
			out[i] = vec
			c.hits.Add(1)
			continue
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			return nil, err
		}
		missing[key] = []int{i}
		order = append(order, key)
	}

	if len(order) == 0 {
		return out, nil
	}
	c.misses.Add(int64(len(order)))

	for lo := 0; lo < len(order); lo += c.batchSize {
		hi := min(lo+c.batchSize, len(order))
		if err := c.computeBatch(ctx, texts, order[lo:hi], missing, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (c *CachedEmbedder) computeBatch(ctx context.Context, texts, keys []string, missing map[string][]int, out [][]float32) error {
	batch := make([]string, len(keys))
	for j, key := range keys {
		batch[j] = texts[missing[key][0]]
	}

	vectors, err := c.underlying.EmbedDocuments(ctx, batch)
	if err != nil {
		return domain.Wrap(domain.ErrEmbedding, err)
	}
	if len(vectors) != len(batch) {
		return domain.Wrap(domain.ErrEmbedding, fmt.Errorf("got %d vectors for %d texts", len(vectors), len(batch)))
	}

	for j, key := range keys {
		if err := c.save(ctx, key, vectors[j]); err != nil {
			return err
		}
		for _, i := range missing[key] {
			out[i] = vectors[j]
		}
	}
	return nil
}

// GetOrCompute is the single-text form of EmbedDocuments.
func (c *CachedEmbedder) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedQuery embeds a question without touching the cache.
func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.underlying.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, err)
	}
	return vec, nil
}

func (c *CachedEmbedder) load(ctx context.Context, key string) ([]float32, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrCacheRead, err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		log.Printf("embedding cache: discarding unreadable entry %s: %v", key, err)
		return nil, domain.ErrCacheMiss
	}
	return vec, nil
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return domain.Wrap(domain.ErrCacheWrite, err)
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return domain.Wrap(domain.ErrCacheWrite, err)
	}
	return nil
}

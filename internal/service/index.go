package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// QueryEmbedder embeds a question with the same model used for the chunks.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the chunks most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)
}

// IndexBuilder builds a Retriever over one document's entries.
type IndexBuilder interface {
	Build(ctx context.Context, namespace string, entries []domain.VectorIndexEntry, embedder QueryEmbedder) (Retriever, error)
}

// MemoryIndexBuilder builds exact-scan in-process indexes.
type MemoryIndexBuilder struct{}

// Build copies entries into a new MemoryIndex.
func (MemoryIndexBuilder) Build(_ context.Context, _ string, entries []domain.VectorIndexEntry, embedder QueryEmbedder) (Retriever, error) {
	return NewMemoryIndex(entries, embedder), nil
}

// MemoryIndex ranks every entry by cosine distance on each query.
type MemoryIndex struct {
	entries  []domain.VectorIndexEntry
	embedder QueryEmbedder
}

func NewMemoryIndex(entries []domain.VectorIndexEntry, embedder QueryEmbedder) *MemoryIndex {
	copied := make([]domain.VectorIndexEntry, len(entries))
	copy(copied, entries)
	return &MemoryIndex{entries: copied, embedder: embedder}
}

// Len returns the number of indexed chunks.
func (m *MemoryIndex) Len() int {
	return len(m.entries)
}

// Retrieve embeds query and returns the k nearest chunks.
func (m *MemoryIndex) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	vec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		if domain.Code(err) == "" {
			err = domain.Wrap(domain.ErrEmbedding, err)
		}
		return nil, err
	}
	return m.Search(vec, k)
}

// Search returns the k entries closest to vec, nearest first. Equal
// distances are ordered by chunk index.
func (m *MemoryIndex) Search(vec []float32, k int) ([]domain.Chunk, error) {
	if k <= 0 || len(m.entries) == 0 {
		return []domain.Chunk{}, nil
	}

	type scored struct {
		chunk    domain.Chunk
		distance float64
	}
	results := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if len(e.Embedding) != len(vec) {
			return nil, domain.Wrap(domain.ErrDimensionMismatch,
				fmt.Errorf("query has %d dimensions, chunk %d has %d", len(vec), e.Chunk.Index, len(e.Embedding)))
		}
		results = append(results, scored{chunk: e.Chunk, distance: CosineDistance(vec, e.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].distance != results[j].distance {
			return results[i].distance < results[j].distance
		}
		return results[i].chunk.Index < results[j].chunk.Index
	})

	k = min(k, len(results))
	out := make([]domain.Chunk, k)
	for i := range out {
		out[i] = results[i].chunk
	}
	return out, nil
}

// CosineDistance returns 1 - cos(a, b). A zero vector has distance 1 to everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

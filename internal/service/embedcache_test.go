package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_ComputesMissesOnceAndMemoizes(t *testing.T) {
	ctx := context.Background()
	mockEmb := new(MockEmbedder)
	store := newMemStore()
	cache := NewCachedEmbedder(mockEmb, store, "embeddings/notes.txt")

	mockEmb.On("EmbedDocuments", ctx, []string{"alpha", "beta"}).
		Return([][]float32{{1, 0}, {0, 1}}, nil).Once()

	first, err := cache.EmbedDocuments(ctx, []string{"alpha", "beta", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}, {1, 0}}, first)

	second, err := cache.EmbedDocuments(ctx, []string{"beta", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 0}}, second)

	mockEmb.AssertNumberOfCalls(t, "EmbedDocuments", 1)
	assert.Equal(t, 2, store.puts)
	assert.Equal(t, CacheStats{Hits: 2, Misses: 2}, cache.Stats())
}

func TestCachedEmbedder_KeysByContentHash(t *testing.T) {
	ctx := context.Background()
	mockEmb := new(MockEmbedder)
	store := newMemStore()
	cache := NewCachedEmbedder(mockEmb, store, "embeddings/notes.txt")

	mockEmb.On("EmbedDocuments", ctx, []string{"hello"}).Return([][]float32{{0.25, -0.5}}, nil)

	_, err := cache.GetOrCompute(ctx, "hello")
	require.NoError(t, err)

	key := "embeddings/notes.txt/2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	assert.Equal(t, key, cache.Key("hello"))
	raw, ok := store.objects[key]
	require.True(t, ok)

	var stored []float32
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, []float32{0.25, -0.5}, stored)
}

func TestCachedEmbedder_SharedStoreAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	firstEmb := new(MockEmbedder)
	firstEmb.On("EmbedDocuments", ctx, []string{"chunk"}).Return([][]float32{{0.1, 0.2, 0.3}}, nil).Once()
	v1, err := NewCachedEmbedder(firstEmb, store, "ns").GetOrCompute(ctx, "chunk")
	require.NoError(t, err)

	secondEmb := new(MockEmbedder)
	v2, err := NewCachedEmbedder(secondEmb, store, "ns").GetOrCompute(ctx, "chunk")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	secondEmb.AssertNotCalled(t, "EmbedDocuments", mock.Anything, mock.Anything)
}

func TestCachedEmbedder_UnderlyingFailureIsComputeError(t *testing.T) {
	ctx := context.Background()
	mockEmb := new(MockEmbedder)
	store := newMemStore()
	cache := NewCachedEmbedder(mockEmb, store, "ns")

	mockEmb.On("EmbedDocuments", ctx, []string{"x"}).Return(nil, errors.New("backend down")).Once()

	_, err := cache.EmbedDocuments(ctx, []string{"x"})

	assert.True(t, domain.IsCode(err, domain.ErrCodeCompute))
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Empty(t, store.objects)
	mockEmb.AssertNumberOfCalls(t, "EmbedDocuments", 1)
}

func TestCachedEmbedder_StoreFailuresAreIOErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("write", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		store := newMemStore()
		store.putErr = errors.New("disk full")
		mockEmb.On("EmbedDocuments", ctx, []string{"x"}).Return([][]float32{{1}}, nil)

		_, err := NewCachedEmbedder(mockEmb, store, "ns").EmbedDocuments(ctx, []string{"x"})
		assert.True(t, domain.IsCode(err, domain.ErrCodeIO))
		assert.ErrorIs(t, err, domain.ErrCacheWrite)
	})

	t.Run("read", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		store := newMemStore()
		store.getErr = errors.New("permission denied")

		_, err := NewCachedEmbedder(mockEmb, store, "ns").EmbedDocuments(ctx, []string{"x"})
		assert.True(t, domain.IsCode(err, domain.ErrCodeIO))
		mockEmb.AssertNotCalled(t, "EmbedDocuments", mock.Anything, mock.Anything)
	})
}

func TestCachedEmbedder_UnreadableEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	mockEmb := new(MockEmbedder)
	store := newMemStore()
	cache := NewCachedEmbedder(mockEmb, store, "ns")
	store.objects[cache.Key("x")] = []byte("not json")

	mockEmb.On("EmbedDocuments", ctx, []string{"x"}).Return([][]float32{{3}}, nil).Once()

	v, err := cache.GetOrCompute(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)
}

func TestCachedEmbedder_EmbedQueryBypassesCache(t *testing.T) {
	ctx := context.Background()
	mockEmb := new(MockEmbedder)
	store := newMemStore()
	cache := NewCachedEmbedder(mockEmb, store, "ns")

	mockEmb.On("EmbedQuery", ctx, "question").Return([]float32{1, 1}, nil).Twice()

	for i := 0; i < 2; i++ {
		v, err := cache.EmbedQuery(ctx, "question")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 1}, v)
	}
	assert.Empty(t, store.objects)
	mockEmb.AssertExpectations(t)
}

func TestCachedEmbedder_SplitsMissesIntoBatches(t *testing.T) {
	ctx := context.Background()

	distinct := func(n int) []string {
		texts := make([]string, n)
		for i := range texts {
			texts[i] = fmt.Sprintf("chunk %d", i)
		}
		return texts
	}

	t.Run("default limit", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		var sizes []int
		mockEmb.On("EmbedDocuments", ctx, mock.AnythingOfType("[]string")).
			Run(func(args mock.Arguments) { sizes = append(sizes, len(args.Get(1).([]string))) }).
			Return(func(_ context.Context, texts []string) [][]float32 { return vectorsFor(texts) }, nil)

		texts := distinct(4116)
		out, err := NewCachedEmbedder(mockEmb, newMemStore(), "ns").EmbedDocuments(ctx, texts)
		require.NoError(t, err)

		assert.Len(t, out, len(texts))
		assert.Equal(t, []int{1000, 1000, 1000, 1000, 116}, sizes)
	})

	t.Run("custom limit keeps input order", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockEmb.On("EmbedDocuments", ctx, []string{"a", "b"}).Return([][]float32{{1}, {2}}, nil).Once()
		mockEmb.On("EmbedDocuments", ctx, []string{"c", "d"}).Return([][]float32{{3}, {4}}, nil).Once()
		mockEmb.On("EmbedDocuments", ctx, []string{"e"}).Return([][]float32{{5}}, nil).Once()

		cache := NewCachedEmbedder(mockEmb, newMemStore(), "ns").WithBatchSize(2)
		out, err := cache.EmbedDocuments(ctx, []string{"a", "b", "c", "a", "d", "e"})
		require.NoError(t, err)

		assert.Equal(t, [][]float32{{1}, {2}, {3}, {1}, {4}, {5}}, out)
		assert.Equal(t, CacheStats{Misses: 5}, cache.Stats())
		mockEmb.AssertExpectations(t)
	})

	t.Run("failed batch stops the run", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		store := newMemStore()
		mockEmb.On("EmbedDocuments", ctx, []string{"a"}).Return([][]float32{{1}}, nil).Once()
		mockEmb.On("EmbedDocuments", ctx, []string{"b"}).Return(nil, errors.New("rate limited")).Once()

		_, err := NewCachedEmbedder(mockEmb, store, "ns").WithBatchSize(1).EmbedDocuments(ctx, []string{"a", "b", "c"})

		assert.ErrorIs(t, err, domain.ErrEmbedding)
		assert.Len(t, store.objects, 1)
		mockEmb.AssertNumberOfCalls(t, "EmbedDocuments", 2)
	})
}

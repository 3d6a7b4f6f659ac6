package service

import (
	"context"
	"io"
	"sync"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockEmbedder mocks the embedding backend
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if fn, ok := args.Get(0).(func(context.Context, []string) [][]float32); ok {
		return fn(ctx, texts), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChatModel mocks the chat backend
type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Stream(ctx context.Context, req domain.ChatRequest) (domain.TokenStream, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.TokenStream), args.Error(1)
}

// sliceStream replays tokens, then returns err (io.EOF when nil).
type sliceStream struct {
	tokens []string
	err    error
	closed bool
}

func newSliceStream(err error, tokens ...string) *sliceStream {
	return &sliceStream{tokens: tokens, err: err}
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.tokens) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	tok := s.tokens[0]
	s.tokens = s.tokens[1:]
	return tok, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// memStore is an in-memory ByteStore and FileStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	s.puts++
	return nil
}

func (s *memStore) Location(key string) string {
	return "mem://" + key
}

// recordingSink captures sink callbacks and the display after each token.
type recordingSink struct {
	started  int
	tokens   []string
	displays []string
	ended    []string
	current  string
}

func (r *recordingSink) OnStart() {
	r.started++
	r.current = ""
}

func (r *recordingSink) OnToken(tok string) {
	r.tokens = append(r.tokens, tok)
	r.current += tok
	r.displays = append(r.displays, r.current)
}

func (r *recordingSink) OnEnd(full string) {
	r.ended = append(r.ended, full)
}

// stubExtractor returns data as text.
type stubExtractor struct {
	err error
}

func (e stubExtractor) Extract(_ string, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(data), nil
}

// fixedRetriever returns the same chunks for any query.
type fixedRetriever struct {
	chunks []domain.Chunk
	err    error
}

func (r fixedRetriever) Retrieve(context.Context, string, int) ([]domain.Chunk, error) {
	return r.chunks, r.err
}

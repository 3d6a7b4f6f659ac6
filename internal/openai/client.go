package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloo-solutions/docgpt/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
const DefaultEmbeddingModel = string(openai.AdaEmbeddingV2)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")
	// ErrCountMismatch is returned when the API returns a different number of vectors than inputs
	ErrCountMismatch = errors.New("embedding count does not match input count")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// ChatAPI defines the interface for streamed chat completions
type ChatAPI interface {
	CreateChatStream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkStream, error)
}

// ChunkStream is the subset of *openai.ChatCompletionStream the client reads.
type ChunkStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// OpenAIAdapter implements EmbeddingAPI and ChatAPI over go-openai. It works
// against any OpenAI-compatible server, including Ollama's /v1 endpoint.
type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// CreateEmbeddings calls the embeddings endpoint and returns vectors in input order
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, ErrCountMismatch
	}

	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = i
		}
		out[idx] = d.Embedding
	}
	return out, nil
}

// CreateChatStream opens a streamed chat completion
func (a *OpenAIAdapter) CreateChatStream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkStream, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
}

// Client embeds text and streams chat completions for the service layer.
type Client struct {
	embeddings     EmbeddingAPI
	chat           ChatAPI
	embeddingModel string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL)
	return &Client{
		embeddings:     adapter,
		chat:           adapter,
		embeddingModel: model,
	}
}

// WithEmbeddingModel returns a copy of the client that embeds with model.
func (c *Client) WithEmbeddingModel(model string) *Client {
	clone := *c
	if model != "" {
		clone.embeddingModel = model
	}
	return &clone
}

// EmbeddingModel returns the model used by EmbedDocuments and EmbedQuery.
func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

// EmbedDocuments embeds all texts in one request.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, t := range texts {
		if t == "" {
			return nil, ErrEmptyText
		}
	}

	vectors, err := c.embeddings.CreateEmbeddings(ctx, c.embeddingModel, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, ErrCountMismatch
	}
	return vectors, nil
}

// EmbedQuery embeds a single question.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Stream sends the prompt as a single user message and returns a token stream.
func (c *Client) Stream(ctx context.Context, req domain.ChatRequest) (domain.TokenStream, error) {
	stream, err := c.chat.CreateChatStream(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start chat stream: %w", err)
	}
	return &tokenStream{stream: stream}, nil
}

// tokenStream flattens completion chunks into content tokens, skipping
// chunks that carry no content (role headers, finish markers).
type tokenStream struct {
	stream ChunkStream
}

func (s *tokenStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("chat stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if tok := resp.Choices[0].Delta.Content; tok != "" {
			return tok, nil
		}
	}
}

func (s *tokenStream) Close() error {
	return s.stream.Close()
}

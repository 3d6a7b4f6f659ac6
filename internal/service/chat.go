package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

// DefaultTemperature is the sampling temperature used for answers.
const DefaultTemperature float32 = 0.1

// ChatModel starts a streamed completion.
type ChatModel interface {
	Stream(ctx context.Context, req domain.ChatRequest) (domain.TokenStream, error)
}

// Sink receives streaming progress. OnEnd is only called when the model
// finished without error.
type Sink interface {
	OnStart()
	OnToken(token string)
	OnEnd(full string)
}

// SinkFuncs adapts plain functions to Sink. Nil fields are skipped.
type SinkFuncs struct {
	Start func()
	Token func(token string)
	End   func(full string)
}

func (s SinkFuncs) OnStart() {
	if s.Start != nil {
		s.Start()
	}
}

func (s SinkFuncs) OnToken(token string) {
	if s.Token != nil {
		s.Token(token)
	}
}

func (s SinkFuncs) OnEnd(full string) {
	if s.End != nil {
		s.End(full)
	}
}

// ChatClient drives a ChatModel stream into a Sink.
type ChatClient struct {
	model       ChatModel
	temperature float32
}

func NewChatClient(model ChatModel) *ChatClient {
	return &ChatClient{model: model, temperature: DefaultTemperature}
}

// WithTemperature overrides the sampling temperature.
func (c *ChatClient) WithTemperature(t float32) *ChatClient {
	c.temperature = t
	return c
}

// Stream sends prompt to modelID and forwards every token to sink. It returns
// the accumulated text; on failure the partial text is returned with a
// COMPUTE_ERROR and OnEnd is not called.
func (c *ChatClient) Stream(ctx context.Context, prompt, modelID string, sink Sink) (string, error) {
	sink.OnStart()

	stream, err := c.model.Stream(ctx, domain.ChatRequest{
		Prompt:      prompt,
		Model:       modelID,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", domain.Wrap(domain.ErrChat, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), domain.Wrap(domain.ErrChat, err)
		}
		full.WriteString(tok)
		sink.OnToken(tok)
	}

	text := full.String()
	sink.OnEnd(text)
	return text, nil
}

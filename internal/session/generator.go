package session

import (
	"context"

	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/model"
)

// TokenStream yields text deltas of one generation call. Next returns io.EOF
// when the stream is complete.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// Generator is the generation backend as the session engine sees it. The
// production implementation wraps llm.Client; tests script their own.
type Generator interface {
	StreamCopilot(ctx context.Context, sc llm.SessionContext, question string, conversation []model.ConversationItem) (TokenStream, error)
	StreamPractice(ctx context.Context, sc llm.SessionContext, conversation []model.ConversationItem, latestAnswer string) (TokenStream, error)
	StreamExampleAnswer(ctx context.Context, sc llm.SessionContext, question string) (TokenStream, error)
	Summary(ctx context.Context, sc llm.SessionContext, mode model.Mode, conversation []model.ConversationItem) (string, error)
}

type llmGenerator struct {
	client *llm.Client
}

// NewLLMGenerator adapts an llm.Client to the Generator interface.
func NewLLMGenerator(client *llm.Client) Generator {
	return llmGenerator{client: client}
}

func (g llmGenerator) StreamCopilot(ctx context.Context, sc llm.SessionContext, question string, conversation []model.ConversationItem) (TokenStream, error) {
	return g.client.StreamCopilot(ctx, sc, question, conversation)
}

func (g llmGenerator) StreamPractice(ctx context.Context, sc llm.SessionContext, conversation []model.ConversationItem, latestAnswer string) (TokenStream, error) {
	return g.client.StreamPractice(ctx, sc, conversation, latestAnswer)
}

func (g llmGenerator) StreamExampleAnswer(ctx context.Context, sc llm.SessionContext, question string) (TokenStream, error) {
	return g.client.StreamExampleAnswer(ctx, sc, question)
}

func (g llmGenerator) Summary(ctx context.Context, sc llm.SessionContext, mode model.Mode, conversation []model.ConversationItem) (string, error) {
	return g.client.Summary(ctx, sc, mode, conversation)
}

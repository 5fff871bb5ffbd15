package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Init prepares the model for use. The underlying client needs no warm-up,
// so this only records the lifecycle event.
func (m *ChatModel) Init(ctx context.Context) error {
	m.logger.Debug("chat model initialized")
	return nil
}

// Answer generates a reply to the request's query grounded in its context.
// Context fragments are rendered as numbered blocks below the template; the
// model is instructed to answer from those blocks only.
func (m *ChatModel) Answer(ctx context.Context, req ai.AnswerRequest) (string, error) {
	if req.ConversationID != "" {
		m.logger.Debug("answering query", "conversation", req.ConversationID, "context", len(req.Context))
	} else {
		m.logger.Debug("answering query", "context", len(req.Context))
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(req.Template),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(renderPrompt(req)),
			},
		},
	}

	response, err := m.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		m.logger.Error("failed to generate answer", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Debug("no choices returned from model")
		return "", fmt.Errorf("model returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// renderPrompt lays out the retrieved context as numbered blocks followed by
// the user's question.
func renderPrompt(req ai.AnswerRequest) string {
	var b strings.Builder

	if len(req.Context) > 0 {
		b.WriteString("Context:\n")
		for i, fragment := range req.Context {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, fragment.PageContent)
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(req.Query)
	return b.String()
}

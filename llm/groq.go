// Package llm implements the completion capability against Groq's
// OpenAI-compatible chat API.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/verdantlabs/gardener/core"
)

// GroqCompleter is a core.Completer backed by an OpenAI-compatible chat
// completion endpoint.
type GroqCompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewGroqCompleter creates a completer for the given endpoint and model.
func NewGroqCompleter(apiKey, baseURL, model string) *GroqCompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &GroqCompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.7,
	}
}

// Complete sends the ordered message sequence and returns the generated
// text.
func (g *GroqCompleter) Complete(ctx context.Context, messages []core.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    chatRole(m.Role),
			Content: m.Content,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choice list")
	}
	return resp.Choices[0].Message.Content, nil
}

func chatRole(r core.Role) string {
	switch r {
	case core.RoleSystem:
		return openai.ChatMessageRoleSystem
	case core.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

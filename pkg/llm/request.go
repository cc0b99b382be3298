package llm

import (
	"context"
	"errors"
)

// ErrNoChoices is returned when a provider answers without any completion.
var ErrNoChoices = errors.New("chat model returned no choices")

// Tool describes a function the model may call.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Parameters is a JSON schema document describing the arguments.
	Parameters any `json:"parameters"`
}

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Tools offered to the model. Empty means a plain completion.
	Tools []Tool `json:"tools,omitempty"`

	// Generation parameters, nil means provider default.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// ChatModel is a chat completion backend.
type ChatModel interface {
	// Chat sends the conversation and returns the assistant's reply.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name identifies the provider and model, e.g. "openai/gpt-5-nano".
	Name() string
}

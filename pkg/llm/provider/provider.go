// Package provider builds llm.ChatModel instances for the supported chat
// completion backends.
package provider

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/papercomputeco/studai/pkg/llm"
	"github.com/papercomputeco/studai/pkg/llm/provider/langchain"
)

// Supported provider type constants
const (
	OpenAI = "openai"
	Ollama = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, Ollama}
}

// Options configures a chat model.
type Options struct {
	ProviderType string

	// Target is the API root. Empty uses the provider default.
	Target string
	Model  string

	// APIKey is only used by OpenAI. Empty falls back to OPENAI_API_KEY.
	APIKey string
}

// New creates a chat model for the given provider type.
// Returns an error if the provider type is not recognized.
func New(o Options) (llm.ChatModel, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("chat model name is required for provider %q", o.ProviderType)
	}

	switch o.ProviderType {
	case OpenAI:
		opts := []openai.Option{openai.WithModel(o.Model)}
		if o.APIKey != "" {
			opts = append(opts, openai.WithToken(o.APIKey))
		}
		if o.Target != "" {
			opts = append(opts, openai.WithBaseURL(o.Target))
		}

		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing openai chat model: %w", err)
		}
		return langchain.New(model, OpenAI, o.Model), nil

	case Ollama:
		opts := []ollama.Option{ollama.WithModel(o.Model)}
		if o.Target != "" {
			opts = append(opts, ollama.WithServerURL(o.Target))
		}

		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama chat model: %w", err)
		}
		return langchain.New(model, Ollama, o.Model), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", o.ProviderType, SupportedProviders())
	}
}

// Package openai implements pkg/embeddings' Embedder on the OpenAI embeddings
// endpoint via langchaingo. Any OpenAI-compatible server works with BaseURL.
package openai

import (
	"context"
	"fmt"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/papercomputeco/studai/pkg/embeddings"
	"github.com/papercomputeco/studai/pkg/vector"
)

// DefaultEmbeddingModel is the default model used for embeddings.
const DefaultEmbeddingModel = "text-embedding-3-small"

// Embedder wraps a langchaingo OpenAI embedder.
type Embedder struct {
	inner      lcembeddings.Embedder
	model      string
	dimensions uint
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// BaseURL overrides the API root, e.g. "https://openrouter.ai/api/v1".
	BaseURL string

	// APIKey falls back to OPENAI_API_KEY when empty.
	APIKey string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions, when set, is checked against every returned vector.
	Dimensions uint
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	opts := []lcopenai.Option{
		lcopenai.WithEmbeddingModel(model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, lcopenai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing openai client: %w", err)
	}

	inner, err := lcembeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("constructing openai embedder: %w", err)
	}

	return &Embedder{
		inner:      inner,
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
	}

	if len(v) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	if e.dimensions > 0 && uint(len(v)) != e.dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, expected %d", vector.ErrEmbedding, e.model, len(v), e.dimensions)
	}

	return v, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)

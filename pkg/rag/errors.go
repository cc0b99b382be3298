package rag

import "errors"

var (
	// ErrInvalidDocument means an upload could not be parsed as a PDF.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmbeddingFailure means the embedding provider failed.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrStoreFailure means the vector store failed to write or query.
	ErrStoreFailure = errors.New("vector store failure")

	// ErrEmptyPrompt means the question was empty after trimming whitespace.
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrInvalidMode means the requested answer mode is not plain or agentic.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrToolCallRequired means the model declined to call the search tool
	// while the tool policy requires it.
	ErrToolCallRequired = errors.New("model did not call the search tool")

	// ErrUpstreamFailure means the chat completion provider failed.
	ErrUpstreamFailure = errors.New("upstream chat model failure")

	// ErrRenderFailure means the answer PDF could not be produced.
	ErrRenderFailure = errors.New("pdf render failure")
)

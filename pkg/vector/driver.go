// Package vector provides interfaces and implementations for vector storage
// of document chunks.
package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// chunkNamespace seeds deterministic chunk ids.
var chunkNamespace = uuid.MustParse("3f0c8a52-6c1e-4f0e-9d59-8a1f2f3b7c11")

// Document is one stored chunk: a single page of an uploaded file.
type Document struct {
	// ID is the chunk id, see ChunkID.
	ID string

	// Content is the extracted page text.
	Content string

	// Filename is the uploaded file the page came from.
	Filename string

	// Page is the 1-based page number. 0 means the page is unknown.
	Page int

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, implementers must
	// replace it.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding,
	// ordered by descending score.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}

// ChunkID derives the stable id of a (filename, page) chunk. Re-ingesting a
// file therefore overwrites its pages instead of duplicating them.
func ChunkID(filename string, page int) string {
	return uuid.NewSHA1(chunkNamespace, fmt.Appendf(nil, "%s#%d", filename, page)).String()
}

// Package chromem provides an in-process vector driver backed by chromem-go.
// It is the default store: nothing to run, cosine similarity, and optional
// gob persistence to a directory.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/papercomputeco/studai/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing chunks.
	DefaultCollectionName = "notes"
)

// errNoEmbedding is returned by the collection embedding func. Every chunk
// arrives with an embedding computed by the configured embedder, so chromem
// must never try to compute one itself.
var errNoEmbedding = errors.New("chromem: documents must carry an embedding")

// Driver implements vector.Driver on top of a chromem-go collection.
type Driver struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	logger     *slog.Logger
}

// Config holds configuration for the chromem driver.
type Config struct {
	// Path is the directory for persistent storage. Empty keeps everything
	// in memory for the lifetime of the process.
	Path string

	// Compress enables gzip compression of persisted files.
	Compress bool

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewDriver creates a new chromem vector driver.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	var db *chromemgo.DB
	if c.Path == "" {
		db = chromemgo.NewDB()
	} else {
		var err error
		db, err = chromemgo.NewPersistentDB(c.Path, c.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database at %s: %w", c.Path, err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbedding
	})
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", collectionName, err)
	}

	logger.Info("chromem vector driver initialized",
		"collection", collectionName,
		"persistent", c.Path != "",
		"documents", collection.Count(),
	)

	return &Driver{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// Add stores documents with their embeddings. chromem replaces documents
// that share an ID.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromemgo.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}

		chromemDocs[i] = chromemgo.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata: map[string]string{
				vector.MetaFilename: doc.Filename,
				vector.MetaPage:     strconv.Itoa(doc.Page),
			},
		}
	}

	if err := d.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added documents to chromem",
		"count", len(docs),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	// chromem rejects nResults larger than the collection.
	count := d.collection.Count()
	if count == 0 {
		return []vector.QueryResult{}, nil
	}
	topK = min(topK, count)

	found, err := d.collection.QueryWithOptions(ctx, chromemgo.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(found))
	for _, r := range found {
		results = append(results, vector.QueryResult{
			Document: toDocument(r.ID, r.Content, r.Metadata, r.Embedding),
			Score:    r.Similarity,
		})
	}

	d.logger.Debug("queried chromem",
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := d.collection.GetByID(ctx, id)
		if err != nil {
			// chromem reports unknown IDs as an error
			continue
		}
		docs = append(docs, toDocument(doc.ID, doc.Content, doc.Metadata, doc.Embedding))
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	d.logger.Debug("deleted documents from chromem",
		"count", len(ids),
	)

	return nil
}

// Close releases resources held by the driver. Persistent databases write
// through on every change, so there is nothing to flush.
func (d *Driver) Close() error {
	return nil
}

func toDocument(id, content string, meta map[string]string, embedding []float32) vector.Document {
	doc := vector.Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
	}

	if meta != nil {
		doc.Filename = meta[vector.MetaFilename]
		doc.Page = vector.ParsePage(meta[vector.MetaPage])
	}

	return doc
}

var _ vector.Driver = (*Driver)(nil)

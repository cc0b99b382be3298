// Package qdrant provides a vector driver backed by the Qdrant gRPC API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/studai/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing page chunks.
	DefaultCollectionName = "notes"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadContent = "content"
)

// Driver implements vector.Driver against a Qdrant collection.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is "host", "host:port" or a URL such as "http://localhost:6334".
	Target string

	APIKey string

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint
}

// SplitTarget extracts the gRPC host and port from a configured target.
func SplitTarget(target string) (string, int, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", 0, errors.New("qdrant target is required")
	}

	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", 0, fmt.Errorf("parsing qdrant target: %w", err)
		}
		target = u.Host
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port given
		return target, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, nil
}

// NewDriver connects to Qdrant and ensures the collection exists with cosine
// distance.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	host, port, err := SplitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx, c.Dimensions); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		"host", host,
		"port", port,
		"collection", collection,
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context, dimensions uint) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}

	return nil
}

// Add upserts documents as points. Point IDs must be UUIDs, which ChunkID
// guarantees.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: map[string]*qdrant.Value{
				payloadContent:      qdrant.NewValueString(doc.Content),
				vector.MetaFilename: qdrant.NewValueString(doc.Filename),
				vector.MetaPage:     qdrant.NewValueInt(int64(doc.Page)),
			},
		}
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		"count", len(docs),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	limit := uint64(topK)

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: fromPayload(p.GetId(), p.GetPayload()),
			Score:    p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs. Embeddings are not returned.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, fromPayload(p.GetId(), p.GetPayload()))
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	wait := true
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: pointIDs(ids),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		"count", len(ids),
	)

	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(id)
	}
	return out
}

func fromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value) vector.Document {
	doc := vector.Document{
		ID: id.GetUuid(),
	}
	if doc.ID == "" && id.GetNum() != 0 {
		doc.ID = strconv.FormatUint(id.GetNum(), 10)
	}

	doc.Content = payload[payloadContent].GetStringValue()
	doc.Filename = payload[vector.MetaFilename].GetStringValue()
	doc.Page = int(payload[vector.MetaPage].GetIntegerValue())

	return doc
}

var _ vector.Driver = (*Driver)(nil)

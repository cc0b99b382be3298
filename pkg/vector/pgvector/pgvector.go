// Package pgvector provides a vector driver backed by PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/papercomputeco/studai/pkg/vector"
)

// DefaultTable is the table used when no collection name is configured.
const DefaultTable = "notes"

// Driver implements vector.Driver on a pgvector table.
type Driver struct {
	pool       *pgxpool.Pool
	tableIdent string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the pgvector driver.
type Config struct {
	// DSN is a PostgreSQL connection string.
	DSN string

	// Table is the table holding page chunks. Defaults to DefaultTable.
	Table string

	// Dimensions sizes the embedding column.
	Dimensions uint
}

// chunkMetadata is the JSONB payload stored beside each embedding.
type chunkMetadata struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
}

// NewDriver connects to PostgreSQL and creates the extension and table when
// missing.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.DSN == "" {
		return nil, errors.New("pgvector DSN is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("pgvector embedding dimensions cannot be 0, must be configured")
	}

	table := c.Table
	if table == "" {
		table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("pgvector vector driver initialized",
		"table", table,
		"dimensions", c.Dimensions,
	)

	return d, nil
}

func (d *Driver) ensureSchema(ctx context.Context) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enabling vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d),
		document TEXT,
		metadata JSONB,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, d.tableIdent, d.dimensions)
	if _, err := conn.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	return nil
}

// Add upserts documents in a single transaction.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, document, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    embedding = excluded.embedding,
    document = excluded.document,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at`, d.tableIdent)

	for _, doc := range docs {
		if len(doc.Embedding) != int(d.dimensions) {
			return fmt.Errorf("document %s dimension mismatch (got %d want %d)", doc.ID, len(doc.Embedding), d.dimensions)
		}

		meta, err := json.Marshal(chunkMetadata{Filename: doc.Filename, Page: doc.Page})
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", doc.ID, err)
		}

		if _, err := tx.Exec(ctx, stmt, doc.ID, pgv.NewVector(doc.Embedding), doc.Content, meta, time.Now().UTC()); err != nil {
			return fmt.Errorf("upserting %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to pgvector",
		"count", len(docs),
	)

	return nil
}

// Query finds the topK most similar documents by cosine distance.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := d.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, document, metadata, 1 - (embedding <=> $1) AS score FROM %s ORDER BY embedding <=> $1 ASC LIMIT $2`,
		d.tableIdent,
	), pgv.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := make([]vector.QueryResult, 0, topK)
	for rows.Next() {
		var (
			doc     vector.Document
			metaRaw []byte
			score   float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metaRaw, &score); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		if err := applyMetadata(&doc, metaRaw); err != nil {
			return nil, err
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    float32(score),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried pgvector",
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, document, metadata, embedding::text FROM %s WHERE id = ANY($1)`,
		d.tableIdent,
	), ids)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]vector.Document, 0, len(ids))
	for rows.Next() {
		var (
			doc     vector.Document
			metaRaw []byte
			embText string
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metaRaw, &embText); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		if err := applyMetadata(&doc, metaRaw); err != nil {
			return nil, err
		}

		var emb pgv.Vector
		if err := emb.Parse(embText); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", doc.ID, err)
		}
		doc.Embedding = emb.Slice()

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := d.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, d.tableIdent), ids); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	d.logger.Debug("deleted documents from pgvector",
		"count", len(ids),
	)

	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

func applyMetadata(doc *vector.Document, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	var meta chunkMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("decoding metadata for %s: %w", doc.ID, err)
	}

	doc.Filename = meta.Filename
	doc.Page = meta.Page
	return nil
}

var _ vector.Driver = (*Driver)(nil)

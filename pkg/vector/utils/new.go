// Package vectorutils selects and constructs a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/studai/pkg/vector"
	"github.com/papercomputeco/studai/pkg/vector/chroma"
	"github.com/papercomputeco/studai/pkg/vector/chromem"
	"github.com/papercomputeco/studai/pkg/vector/pgvector"
	"github.com/papercomputeco/studai/pkg/vector/qdrant"
	"github.com/papercomputeco/studai/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderChromem  = "chromem"
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a URL, DSN or path depending on the provider.
	Target     string
	Collection string
	Dimensions uint
	APIKey     string
	Logger     *slog.Logger
}

// Providers lists the provider names accepted by NewVectorDriver.
func Providers() []string {
	return []string{ProviderChromem, ProviderSQLite, ProviderChroma, ProviderQdrant, ProviderPgvector}
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderChromem, "":
		return chromem.NewDriver(chromem.Config{
			Path:           o.Target,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderSQLite:
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:         o.Target,
			APIKey:         o.APIKey,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			DSN:        o.Target,
			Table:      o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

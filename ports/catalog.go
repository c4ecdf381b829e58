package ports

import (
	"context"

	"github.com/salmanhiro/starnet/domain/core"
)

// CatalogReader reads a stellar-parameter catalog (one row per star, one
// column per physical parameter) from a survey distribution file. Catalogs
// carry labels only; flux arrays live in the spectrum archive.
type CatalogReader interface {
	// ReadColumns returns the requested columns, row-aligned. Fails with a
	// storage error when a column is absent or lengths disagree.
	ReadColumns(ctx context.Context, path string, keys []core.ColumnKey) (map[core.ColumnKey][]float64, error)
}

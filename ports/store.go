package ports

import (
	"context"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
)

// SpectrumStore provides read access to archived spectra and their paired
// stellar-parameter labels. Implementations assemble row-aligned named
// columns into a reference set; row index is the implicit identifier.
type SpectrumStore interface {
	// Load reads the spectrum block plus the named label columns from the
	// container at path. Fails with a storage error if any requested column
	// is absent or the columns are not row-aligned.
	Load(ctx context.Context, path string, labels []core.ColumnKey) (*dataset.ReferenceSet, error)
}

// BatchSpectrumStore is implemented by stores that can stream a large archive
// in bounded row batches instead of materializing it fully in memory.
type BatchSpectrumStore interface {
	SpectrumStore

	// LoadBatch reads rows [offset, offset+limit) in load order. A negative
	// limit reads through the final row.
	LoadBatch(ctx context.Context, path string, labels []core.ColumnKey, offset, limit int) (*dataset.ReferenceSet, error)
}

// SpectrumMirror is a writable archive mirror: a store that can also ingest
// reference sets under a named archive and report mirrored row counts.
type SpectrumMirror interface {
	BatchSpectrumStore

	Import(ctx context.Context, archive string, set *dataset.ReferenceSet, labels []core.ColumnKey) error
	Count(ctx context.Context, archive string) (int, error)
}

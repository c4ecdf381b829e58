// Package postgres mirrors spectrum archives into a relational store, so
// downstream tooling can query labels without touching the archive files and
// the pipeline can stream large reference sets in bounded row batches.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/ports"
)

// spectrumRepository implements the spectrum store ports over postgres.
// The port's path argument names the mirrored archive.
type spectrumRepository struct {
	db *sqlx.DB
}

// NewSpectrumRepository creates a postgres-backed spectrum store
func NewSpectrumRepository(db *sqlx.DB) ports.SpectrumMirror {
	return &spectrumRepository{db: db}
}

// Migrate creates the mirror table if it does not exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS spectra (
		archive  TEXT    NOT NULL,
		row_idx  INTEGER NOT NULL,
		flux     FLOAT8[] NOT NULL,
		noise    FLOAT8[],
		labels   JSONB   NOT NULL,
		PRIMARY KEY (archive, row_idx)
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create spectra table: %w", err)
	}
	return nil
}

// Import mirrors a reference set under the given archive name, replacing any
// previous rows for that archive.
func (r *spectrumRepository) Import(ctx context.Context, archive string, set *dataset.ReferenceSet, labels []core.ColumnKey) error {
	if err := set.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM spectra WHERE archive = $1`, archive); err != nil {
		return fmt.Errorf("failed to clear archive %s: %w", archive, err)
	}

	insert := `INSERT INTO spectra (archive, row_idx, flux, noise, labels)
		VALUES ($1, $2, $3, $4, $5)`

	for row := 0; row < set.Len(); row++ {
		labelMap := make(map[core.ColumnKey]float64, len(labels))
		for i, key := range labels {
			if i >= set.Labels[row].Dims() {
				return core.NewColumnMissingError(key)
			}
			labelMap[key] = set.Labels[row][i]
		}
		labelJSON, err := json.Marshal(labelMap)
		if err != nil {
			return fmt.Errorf("failed to marshal labels for row %d: %w", row, err)
		}

		var noise interface{}
		if set.Errors != nil {
			noise = pq.Float64Array(set.Errors[row])
		}

		if _, err := tx.ExecContext(ctx, insert,
			archive, row, pq.Float64Array(set.Spectra[row]), noise, labelJSON,
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", row, err)
		}
	}

	return tx.Commit()
}

// Load reads the complete mirrored archive
func (r *spectrumRepository) Load(ctx context.Context, archive string, labels []core.ColumnKey) (*dataset.ReferenceSet, error) {
	return r.LoadBatch(ctx, archive, labels, 0, -1)
}

// LoadBatch reads rows [offset, offset+limit) of the mirrored archive in row
// order, bounding memory for large reference sets.
func (r *spectrumRepository) LoadBatch(ctx context.Context, archive string, labels []core.ColumnKey, offset, limit int) (*dataset.ReferenceSet, error) {
	query := `SELECT flux, noise, labels FROM spectra
		WHERE archive = $1 ORDER BY row_idx OFFSET $2`
	args := []interface{}{archive, offset}
	if limit >= 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying archive %s: %v", core.ErrStorage, archive, err)
	}
	defer rows.Close()

	set := &dataset.ReferenceSet{}
	hasNoise := false

	for rows.Next() {
		var (
			flux      pq.Float64Array
			noise     pq.Float64Array
			labelJSON []byte
		)
		if err := rows.Scan(&flux, &noise, &labelJSON); err != nil {
			return nil, fmt.Errorf("%w: scanning archive %s: %v", core.ErrStorage, archive, err)
		}

		labelMap := make(map[core.ColumnKey]float64)
		if err := json.Unmarshal(labelJSON, &labelMap); err != nil {
			return nil, fmt.Errorf("%w: decoding labels: %v", core.ErrStorage, err)
		}
		label := make(dataset.LabelVector, len(labels))
		for i, key := range labels {
			value, ok := labelMap[key]
			if !ok {
				return nil, core.NewColumnMissingError(key)
			}
			label[i] = value
		}

		set.Spectra = append(set.Spectra, dataset.Spectrum(flux))
		set.Labels = append(set.Labels, label)
		if noise != nil {
			hasNoise = true
		}
		set.Errors = append(set.Errors, dataset.Spectrum(noise))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating archive %s: %v", core.ErrStorage, archive, err)
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: archive %s has no rows at offset %d", core.ErrStorage, archive, offset)
	}
	if !hasNoise {
		set.Errors = nil
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Count returns the mirrored row count for an archive
func (r *spectrumRepository) Count(ctx context.Context, archive string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM spectra WHERE archive = $1`, archive)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("%w: counting archive %s: %v", core.ErrStorage, archive, err)
	}
	return count, nil
}

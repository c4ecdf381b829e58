package columnar

import (
	"context"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/ports"
)

// Store reads reference sets from columnar archive files
type Store struct{}

// NewStore creates a columnar spectrum store
func NewStore() *Store {
	return &Store{}
}

var _ ports.BatchSpectrumStore = (*Store)(nil)

// Load assembles a full reference set from the archive at path
func (s *Store) Load(ctx context.Context, path string, labels []core.ColumnKey) (*dataset.ReferenceSet, error) {
	return s.LoadBatch(ctx, path, labels, 0, -1)
}

// LoadBatch assembles rows [offset, offset+limit) from the archive. A
// negative limit loads through the final row.
func (s *Store) LoadBatch(ctx context.Context, path string, labels []core.ColumnKey, offset, limit int) (*dataset.ReferenceSet, error) {
	container, err := Open(path)
	if err != nil {
		return nil, err
	}
	return Assemble(container, labels, offset, limit)
}

// Assemble builds a reference set from an in-memory container. Shared by the
// file store and the relational mirror's import path.
func Assemble(container *Container, labels []core.ColumnKey, offset, limit int) (*dataset.ReferenceSet, error) {
	spectra, ok := container.Column(dataset.ColumnSpectrum)
	if !ok {
		return nil, core.NewColumnMissingError(dataset.ColumnSpectrum)
	}

	labelCols := make([]Column, len(labels))
	for i, key := range labels {
		col, ok := container.Column(key)
		if !ok {
			return nil, core.NewColumnMissingError(key)
		}
		if col.Rows != spectra.Rows {
			return nil, core.NewLengthMismatchError(key, col.Rows, spectra.Rows)
		}
		if col.Width != 1 {
			return nil, core.NewLengthMismatchError(key, col.Width, 1)
		}
		labelCols[i] = col
	}

	errCol, hasErrors := container.Column(dataset.ColumnErrorSpectrum)
	if hasErrors {
		if errCol.Rows != spectra.Rows || errCol.Width != spectra.Width {
			return nil, core.NewLengthMismatchError(dataset.ColumnErrorSpectrum, errCol.Rows*errCol.Width, spectra.Rows*spectra.Width)
		}
	}

	end := spectra.Rows
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	if offset < 0 || offset > spectra.Rows {
		return nil, core.NewValidationError("batch_offset", "offset outside archive")
	}

	set := &dataset.ReferenceSet{
		Spectra: make([]dataset.Spectrum, 0, end-offset),
		Labels:  make([]dataset.LabelVector, 0, end-offset),
	}
	if hasErrors {
		set.Errors = make([]dataset.Spectrum, 0, end-offset)
	}

	for row := offset; row < end; row++ {
		set.Spectra = append(set.Spectra, dataset.Spectrum(spectra.Row(row)))
		label := make(dataset.LabelVector, len(labelCols))
		for i, col := range labelCols {
			label[i] = col.Row(row)[0]
		}
		set.Labels = append(set.Labels, label)
		if hasErrors {
			set.Errors = append(set.Errors, dataset.Spectrum(errCol.Row(row)))
		}
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// BuildContainer converts a reference set back into archive form, preserving
// row order. Used by the import CLI and tests.
func BuildContainer(set *dataset.ReferenceSet, labels []core.ColumnKey) (*Container, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	rows := set.Len()
	bins := set.Spectra[0].Bins()

	container := NewContainer()

	flux := make([]float64, 0, rows*bins)
	for _, s := range set.Spectra {
		flux = append(flux, s...)
	}
	if err := container.AddColumn(dataset.ColumnSpectrum, rows, bins, flux); err != nil {
		return nil, err
	}

	for i, key := range labels {
		values := make([]float64, rows)
		for row, label := range set.Labels {
			if i >= label.Dims() {
				return nil, core.NewColumnMissingError(key)
			}
			values[row] = label[i]
		}
		if err := container.AddColumn(key, rows, 1, values); err != nil {
			return nil, err
		}
	}

	if set.Errors != nil {
		noise := make([]float64, 0, rows*bins)
		for _, e := range set.Errors {
			noise = append(noise, e...)
		}
		if err := container.AddColumn(dataset.ColumnErrorSpectrum, rows, bins, noise); err != nil {
			return nil, err
		}
	}

	return container, nil
}

// Package columnar implements the archive file format consumed by the
// spectrum store: a container of named dense numeric columns, all row-aligned
// by index. The spectrum column is a 2-D block (rows x bins); label and error
// columns are per-row scalars or blocks of their own width.
package columnar

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/internal/errors"
)

// Column is one named dense array. Data is row-major: row i occupies
// Data[i*Width : (i+1)*Width].
type Column struct {
	Rows  int
	Width int
	Data  []float64
}

// Row returns row i of the column without copying
func (c *Column) Row(i int) []float64 {
	return c.Data[i*c.Width : (i+1)*c.Width]
}

// Container is a set of row-aligned named columns
type Container struct {
	Columns map[core.ColumnKey]Column
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{Columns: make(map[core.ColumnKey]Column)}
}

// AddColumn inserts a named column. Width 1 columns hold one scalar per row.
func (c *Container) AddColumn(key core.ColumnKey, rows, width int, data []float64) error {
	if rows*width != len(data) {
		return core.NewLengthMismatchError(key, len(data), rows*width)
	}
	c.Columns[key] = Column{Rows: rows, Width: width, Data: data}
	return nil
}

// Column looks up a column by key
func (c *Container) Column(key core.ColumnKey) (Column, bool) {
	col, ok := c.Columns[key]
	return col, ok
}

// Validate checks that every column agrees on row count
func (c *Container) Validate() error {
	rows := -1
	for key, col := range c.Columns {
		if rows < 0 {
			rows = col.Rows
		}
		if col.Rows != rows {
			return core.NewLengthMismatchError(key, col.Rows, rows)
		}
	}
	return nil
}

// Save writes the container to disk
func Save(container *Container, path string) error {
	if err := container.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating archive directory %s", dir)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating archive %s", path)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(container); err != nil {
		return errors.Wrapf(err, "encoding archive %s", path)
	}
	return nil
}

// Open reads a container from disk
func Open(path string) (*Container, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %s", path)
	}
	defer file.Close()

	container := NewContainer()
	if err := gob.NewDecoder(file).Decode(container); err != nil {
		return nil, errors.Wrapf(err, "decoding archive %s", path)
	}
	if err := container.Validate(); err != nil {
		return nil, err
	}
	return container, nil
}

// Package excel reads stellar-parameter catalogs distributed as spreadsheet
// or CSV tables: one row per star, one column per physical parameter. Flux
// arrays never travel through catalogs; they live in the spectrum archive.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/ports"
)

// CatalogReader handles reading xlsx and csv catalog files
type CatalogReader struct{}

// NewCatalogReader creates a catalog reader
func NewCatalogReader() *CatalogReader {
	return &CatalogReader{}
}

var _ ports.CatalogReader = (*CatalogReader)(nil)

// ReadColumns reads the requested catalog columns, row-aligned. Blank or
// unparseable cells become NaN so the preprocessing stage can scrub them
// under its normal policy.
func (r *CatalogReader) ReadColumns(ctx context.Context, path string, keys []core.ColumnKey) (map[core.ColumnKey][]float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: catalog file not found: %s", core.ErrStorage, path)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	default:
		rows, err = readSheetRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: catalog %s needs a header row and at least one data row", core.ErrStorage, path)
	}

	header := rows[0]
	columnIndex := make(map[core.ColumnKey]int, len(keys))
	for _, key := range keys {
		idx := -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), key.String()) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, core.NewColumnMissingError(key)
		}
		columnIndex[key] = idx
	}

	result := make(map[core.ColumnKey][]float64, len(keys))
	for _, key := range keys {
		result[key] = make([]float64, 0, len(rows)-1)
	}

	for _, row := range rows[1:] {
		for _, key := range keys {
			idx := columnIndex[key]
			value := math.NaN()
			if idx < len(row) {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64); err == nil {
					value = parsed
				}
			}
			result[key] = append(result[key], value)
		}
	}

	return result, nil
}

func readSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open catalog %s: %v", core.ErrStorage, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: catalog %s has no sheets", core.ErrStorage, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %v", core.ErrStorage, sheets[0], err)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open catalog %s: %v", core.ErrStorage, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse catalog %s: %v", core.ErrStorage, path, err)
	}
	return rows, nil
}

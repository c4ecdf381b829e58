package columnar

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal/testkit"
)

func TestStore_SaveOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	stream := rand.New(rand.NewSource(1))
	set := testkit.SyntheticReferenceSet(20, 16, stream)
	labels := dataset.DefaultLabelColumns()

	container, err := BuildContainer(set, labels)
	if err != nil {
		t.Fatalf("BuildContainer failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "archive.bin")
	if err := Save(container, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := NewStore().Load(ctx, path, labels)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Len() != set.Len() {
		t.Fatalf("round trip changed row count: got %d, want %d", loaded.Len(), set.Len())
	}
	for i := 0; i < set.Len(); i++ {
		for j, v := range set.Spectra[i] {
			if loaded.Spectra[i][j] != v {
				t.Fatalf("flux[%d][%d] changed in round trip", i, j)
			}
		}
		for d, v := range set.Labels[i] {
			if loaded.Labels[i][d] != v {
				t.Fatalf("label[%d][%d] changed in round trip", i, d)
			}
		}
		for j, v := range set.Errors[i] {
			if loaded.Errors[i][j] != v {
				t.Fatalf("error spectrum[%d][%d] changed in round trip", i, j)
			}
		}
	}
}

func TestStore_LoadBatchWindows(t *testing.T) {
	ctx := context.Background()
	stream := rand.New(rand.NewSource(2))
	set := testkit.SyntheticReferenceSet(10, 8, stream)
	labels := dataset.DefaultLabelColumns()

	container, err := BuildContainer(set, labels)
	if err != nil {
		t.Fatalf("BuildContainer failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "archive.bin")
	if err := Save(container, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store := NewStore()

	first, err := store.LoadBatch(ctx, path, labels, 0, 4)
	if err != nil {
		t.Fatalf("LoadBatch(0,4) failed: %v", err)
	}
	if first.Len() != 4 {
		t.Fatalf("expected 4 rows, got %d", first.Len())
	}
	if first.Labels[0][0] != set.Labels[0][0] {
		t.Error("first batch does not start at row 0")
	}

	tail, err := store.LoadBatch(ctx, path, labels, 8, 4)
	if err != nil {
		t.Fatalf("LoadBatch(8,4) failed: %v", err)
	}
	if tail.Len() != 2 {
		t.Fatalf("expected short final batch of 2 rows, got %d", tail.Len())
	}
	if tail.Labels[0][0] != set.Labels[8][0] {
		t.Error("final batch does not start at row 8")
	}

	if _, err := store.LoadBatch(ctx, path, labels, 10, 4); !errors.Is(err, core.ErrEmptyReferenceSet) {
		t.Errorf("expected empty set error past the final row, got %v", err)
	}
}

func TestAssemble_MissingColumn(t *testing.T) {
	container := NewContainer()
	if err := container.AddColumn(dataset.ColumnSpectrum, 2, 3, make([]float64, 6)); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	_, err := Assemble(container, []core.ColumnKey{dataset.ColumnTeff}, 0, -1)
	if !errors.Is(err, core.ErrColumnMissing) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestAssemble_LabelRowMismatch(t *testing.T) {
	container := NewContainer()
	if err := container.AddColumn(dataset.ColumnSpectrum, 2, 3, make([]float64, 6)); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	// three label rows against two spectra
	container.Columns[dataset.ColumnTeff] = Column{Rows: 3, Width: 1, Data: make([]float64, 3)}

	_, err := Assemble(container, []core.ColumnKey{dataset.ColumnTeff}, 0, -1)
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Fatalf("expected length mismatch error, got %v", err)
	}
}

func TestAddColumn_RejectsShortData(t *testing.T) {
	container := NewContainer()
	err := container.AddColumn(dataset.ColumnSpectrum, 2, 3, make([]float64, 5))
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Fatalf("expected length mismatch error, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Fatal("expected an error opening a missing archive")
	}
}

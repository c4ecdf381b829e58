package core

import "testing"

func TestComputeDatasetHash_OrderIndependentKeys(t *testing.T) {
	columns := map[ColumnKey][]float64{
		"TEFF":     {5000, 4800},
		"LOGG":     {4.5, 4.2},
		"spectrum": {1, 2, 3, 4},
	}

	first := ComputeDatasetHash(columns)
	second := ComputeDatasetHash(columns)
	if first != second {
		t.Fatal("same columns hashed differently across calls")
	}

	columns["TEFF"][0] = 5001
	if ComputeDatasetHash(columns) == first {
		t.Fatal("changing a value did not change the hash")
	}
}

func TestComputeDatasetHash_KeyBoundToValues(t *testing.T) {
	a := ComputeDatasetHash(map[ColumnKey][]float64{"TEFF": {1}, "LOGG": {2}})
	b := ComputeDatasetHash(map[ColumnKey][]float64{"TEFF": {2}, "LOGG": {1}})
	if a == b {
		t.Fatal("swapping values between columns did not change the hash")
	}
}

func TestNewHash_StableAndNonEmpty(t *testing.T) {
	h := NewHash([]byte("starnet"))
	if h.IsEmpty() {
		t.Fatal("hash is empty")
	}
	if !h.Equals(NewHash([]byte("starnet"))) {
		t.Fatal("same input hashed differently")
	}
	if h.Equals(NewHash([]byte("other"))) {
		t.Fatal("different inputs collided")
	}
}

package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	DatasetHash Hash
	ConfigHash  Hash
)

// String conversions
func (h DatasetHash) String() string { return Hash(h).String() }
func (h ConfigHash) String() string  { return Hash(h).String() }

// ComputeDatasetHash fingerprints row-aligned float columns so a run manifest
// can assert it was replayed against the same reference set.
func ComputeDatasetHash(columns map[ColumnKey][]float64) DatasetHash {
	keys := make([]ColumnKey, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	// Deterministic column order
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}

	hasher := sha256.New()
	buf := make([]byte, 8)
	for _, key := range keys {
		hasher.Write([]byte(key))
		for _, v := range columns[key] {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			hasher.Write(buf)
		}
	}
	return DatasetHash(hex.EncodeToString(hasher.Sum(nil)))
}

// ComputeConfigHash fingerprints an opaque configuration blob (typically the
// JSON encoding of a run's settings).
func ComputeConfigHash(encoded []byte) ConfigHash {
	return ConfigHash(NewHash(encoded))
}

package normalize

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal/errors"
)

// Save persists normalization stats as a small 2-by-D JSON document. Go's
// float encoding uses the shortest representation that round-trips, so
// LoadStats recovers the exact values.
func Save(stats *dataset.NormalizationStats, path string) error {
	if err := stats.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating stats directory %s", dir)
		}
	}
	encoded, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding normalization stats")
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return errors.Wrapf(err, "writing normalization stats to %s", path)
	}
	return nil
}

// LoadStats reads previously persisted normalization stats
func LoadStats(path string) (*dataset.NormalizationStats, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading normalization stats from %s", path)
	}
	stats := &dataset.NormalizationStats{}
	if err := json.Unmarshal(encoded, stats); err != nil {
		return nil, errors.Wrap(err, "decoding normalization stats")
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	return stats, nil
}

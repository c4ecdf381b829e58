package run

import (
	"encoding/json"

	"github.com/salmanhiro/starnet/domain/core"
)

// Manifest is the complete specification for one pipeline run. It is written
// before any derived artifact so a run can be replayed: same manifest, same
// reference set, same outputs.
type Manifest struct {
	RunID         core.RunID       `json:"run_id"`
	Seed          int64            `json:"seed"`
	TrainFraction float64          `json:"train_fraction"`
	EnsembleSize  int              `json:"ensemble_size"`
	NoiseScale    float64          `json:"noise_scale"`
	DatasetHash   core.DatasetHash `json:"dataset_hash"`
	ConfigHash    core.ConfigHash  `json:"config_hash"`

	// Cleaning outcome, recorded for audit: policy removals are counted here,
	// never raised as errors.
	InputRows           int `json:"input_rows"`
	RemovedZeroVariance int `json:"removed_zero_variance"`
	ScrubbedNaN         int `json:"scrubbed_nan"`

	CodeVersion string         `json:"code_version"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest creates a run manifest with a fresh run ID
func NewManifest(seed int64, trainFraction float64, ensembleSize int, noiseScale float64) *Manifest {
	return &Manifest{
		RunID:         core.RunID(core.NewID()),
		Seed:          seed,
		TrainFraction: trainFraction,
		EnsembleSize:  ensembleSize,
		NoiseScale:    noiseScale,
		CreatedAt:     core.Now(),
	}
}

// Fingerprint derives the determinism fingerprint from the manifest fields
// that decide run output.
func (m *Manifest) Fingerprint() core.Hash {
	encoded, _ := json.Marshal(struct {
		Seed          int64            `json:"seed"`
		TrainFraction float64          `json:"train_fraction"`
		EnsembleSize  int              `json:"ensemble_size"`
		NoiseScale    float64          `json:"noise_scale"`
		DatasetHash   core.DatasetHash `json:"dataset_hash"`
		ConfigHash    core.ConfigHash  `json:"config_hash"`
	}{m.Seed, m.TrainFraction, m.EnsembleSize, m.NoiseScale, m.DatasetHash, m.ConfigHash})
	return core.NewHash(encoded)
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.TrainFraction <= 0 || m.TrainFraction >= 1 {
		return core.NewInvalidFractionError(m.TrainFraction)
	}
	if m.EnsembleSize < 2 {
		return core.NewInsufficientSamplesError(m.EnsembleSize)
	}
	if m.DatasetHash == "" {
		return core.NewValidationError("run_manifest", "dataset_hash cannot be empty")
	}
	return nil
}

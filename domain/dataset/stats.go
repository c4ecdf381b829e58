package dataset

import (
	"github.com/salmanhiro/starnet/domain/core"
)

// NormalizationStats holds per-label-dimension mean and standard deviation,
// computed once from a training reference set and frozen. The same stats must
// be applied at inference time, so they persist as a fixed 2 x D array.
type NormalizationStats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Dims returns the number of label dimensions covered
func (s *NormalizationStats) Dims() int {
	return len(s.Mean)
}

// Validate checks the 2 x D shape and that no dimension is degenerate
func (s *NormalizationStats) Validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Std) {
		return core.ErrStatsShape
	}
	for dim, sd := range s.Std {
		if sd == 0 {
			return core.NewDegenerateDimensionError(dim)
		}
	}
	return nil
}

// PredictionSample pairs one spectrum with its perturbation ensemble and the
// derived per-dimension summary, all in physical label units.
type PredictionSample struct {
	Spectrum Spectrum      `json:"-"`
	Ensemble []LabelVector `json:"ensemble,omitempty"`

	Mean  LabelVector `json:"mean"`
	Std   LabelVector `json:"std"`
	Lower LabelVector `json:"lower,omitempty"`
	Upper LabelVector `json:"upper,omitempty"`

	EnsembleSize int `json:"ensemble_size"`
}

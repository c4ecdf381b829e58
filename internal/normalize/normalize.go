// Package normalize computes and applies per-dimension label normalization.
// Stats are fit once on the training reference set, frozen, and reused for
// every later Apply/Invert call, including at inference time.
package normalize

import (
	"gonum.org/v1/gonum/stat"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
)

// Fit computes per-dimension mean and population standard deviation across
// all label vectors. A zero-variance dimension is an error, distinct from the
// zero-variance *spectrum* case, which preprocessing removes as policy: a
// degenerate label dimension means (x-mean)/std is undefined for the whole
// set and the caller must choose a policy before training.
func Fit(labels []dataset.LabelVector) (*dataset.NormalizationStats, error) {
	if len(labels) == 0 {
		return nil, core.ErrEmptyReferenceSet
	}
	dims := labels[0].Dims()

	stats := &dataset.NormalizationStats{
		Mean: make([]float64, dims),
		Std:  make([]float64, dims),
	}

	column := make([]float64, len(labels))
	for dim := 0; dim < dims; dim++ {
		for i, l := range labels {
			if l.Dims() != dims {
				return nil, core.ErrPairingMismatch
			}
			column[i] = l[dim]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if len(labels) == 1 || std == 0 {
			// MeanStdDev returns NaN std for a single sample
			return nil, core.NewDegenerateDimensionError(dim)
		}
		stats.Mean[dim] = mean
		stats.Std[dim] = std
	}

	return stats, nil
}

// Apply maps labels into normalized space: (x - mean) / std per dimension.
// Input labels are not mutated.
func Apply(labels []dataset.LabelVector, stats *dataset.NormalizationStats) ([]dataset.LabelVector, error) {
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	out := make([]dataset.LabelVector, len(labels))
	for i, l := range labels {
		if l.Dims() != stats.Dims() {
			return nil, core.ErrStatsShape
		}
		normalized := make(dataset.LabelVector, l.Dims())
		for dim, v := range l {
			normalized[dim] = (v - stats.Mean[dim]) / stats.Std[dim]
		}
		out[i] = normalized
	}
	return out, nil
}

// Invert is the exact algebraic inverse of Apply: x*std + mean
func Invert(labels []dataset.LabelVector, stats *dataset.NormalizationStats) ([]dataset.LabelVector, error) {
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	out := make([]dataset.LabelVector, len(labels))
	for i, l := range labels {
		if l.Dims() != stats.Dims() {
			return nil, core.ErrStatsShape
		}
		original := make(dataset.LabelVector, l.Dims())
		for dim, v := range l {
			original[dim] = v*stats.Std[dim] + stats.Mean[dim]
		}
		out[i] = original
	}
	return out, nil
}

// InvertOne inverts a single label vector
func InvertOne(label dataset.LabelVector, stats *dataset.NormalizationStats) (dataset.LabelVector, error) {
	inverted, err := Invert([]dataset.LabelVector{label}, stats)
	if err != nil {
		return nil, err
	}
	return inverted[0], nil
}

// Package split partitions a cleaned reference set into train and
// cross-validation subsets. A single global permutation precedes the cut:
// source archives arrive grouped by observing run, and slicing without a
// shuffle would leak that ordering into the train/validation separation.
package split

import (
	"math"
	"math/rand"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
)

// DefaultTrainFraction is the 90/10 split used by the training pipeline
const DefaultTrainFraction = 0.9

// Split shuffles the full set of (spectrum, label) pairs with the injected
// stream, then takes the first floor(trainFraction*N) permuted rows as Train
// and the remainder as CrossValidation. Given the same stream seed and input
// order, the partition is identical across runs.
func Split(set *dataset.ReferenceSet, trainFraction float64, stream *rand.Rand) (*dataset.Split, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, core.NewInvalidFractionError(trainFraction)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	n := set.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	stream.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	trainSize := int(math.Floor(trainFraction * float64(n)))

	return &dataset.Split{
		Train:           set.Subset(indices[:trainSize]),
		CrossValidation: set.Subset(indices[trainSize:]),
		TrainFraction:   trainFraction,
	}, nil
}

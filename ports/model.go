package ports

import (
	"context"

	"github.com/salmanhiro/starnet/domain/dataset"
)

// Regressor is the opaque trained-model capability consumed by the pipeline.
// The core never depends on a model's internals; any regression backend that
// maps spectra to normalized label vectors can sit behind this interface.
//
// Predictions are in normalized label space; callers invert them through the
// frozen NormalizationStats to recover physical units.
type Regressor interface {
	// Predict runs deterministic batched inference
	Predict(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error)
}

// StochasticRegressor is implemented by models that support a noise-injected
// inference mode (dropout kept active at prediction time). Repeated calls on
// identical input return perturbed outputs; the error propagator uses this
// for its stochastic ensemble policy.
type StochasticRegressor interface {
	Regressor

	PredictStochastic(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error)
}

// Trainer is implemented by in-tree baseline models that can be fit directly
// from a cleaned split. External CNN backends train out-of-process and only
// surface the Regressor capability.
type Trainer interface {
	Fit(ctx context.Context, train *dataset.ReferenceSet) error
}

// Package regressor provides the in-tree baseline model: ridge regression
// from flux bins to normalized labels. It exists so the pipeline and its
// tests run end-to-end without an external CNN backend; production models
// sit behind the same ports and train out-of-process.
package regressor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/ports"
)

// Ridge is an L2-regularized linear model with a bias term. Labels are
// expected in normalized space, matching the Regressor contract.
type Ridge struct {
	lambda float64

	mu          sync.Mutex
	weights     *mat.Dense // (bins+1) x dims, row 0 is bias
	residualStd []float64  // per-dim training residual spread
	stream      *rand.Rand
}

// NewRidge creates an untrained ridge model. The stream drives stochastic
// inference; pass a seeded stream for reproducible ensembles.
func NewRidge(lambda float64, stream *rand.Rand) *Ridge {
	return &Ridge{lambda: lambda, stream: stream}
}

var (
	_ ports.Regressor           = (*Ridge)(nil)
	_ ports.StochasticRegressor = (*Ridge)(nil)
	_ ports.Trainer             = (*Ridge)(nil)
)

// Fit solves the regularized normal equations on the training set
func (m *Ridge) Fit(ctx context.Context, train *dataset.ReferenceSet) error {
	if err := train.Validate(); err != nil {
		return err
	}
	n := train.Len()
	bins := train.Spectra[0].Bins()
	dims := train.Labels[0].Dims()
	cols := bins + 1

	design := mat.NewDense(n, cols, nil)
	targets := mat.NewDense(n, dims, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j, v := range train.Spectra[i] {
			design.Set(i, j+1, v)
		}
		for d, v := range train.Labels[i] {
			targets.Set(i, d, v)
		}
	}

	// Gram matrix with ridge penalty; the bias row is left unpenalized
	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 1; j < cols; j++ {
		gram.Set(j, j, gram.At(j, j)+m.lambda)
	}

	var rhs mat.Dense
	rhs.Mul(design.T(), targets)

	weights := mat.NewDense(cols, dims, nil)
	if err := weights.Solve(&gram, &rhs); err != nil {
		return fmt.Errorf("ridge solve failed: %w", err)
	}

	// Training residual spread per dimension drives stochastic inference
	var fitted mat.Dense
	fitted.Mul(design, weights)
	residualStd := make([]float64, dims)
	for d := 0; d < dims; d++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			r := targets.At(i, d) - fitted.At(i, d)
			sum += r * r
		}
		residualStd[d] = math.Sqrt(sum / float64(n))
	}

	m.mu.Lock()
	m.weights = weights
	m.residualStd = residualStd
	m.mu.Unlock()
	return nil
}

// Predict runs deterministic batched inference
func (m *Ridge) Predict(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error) {
	m.mu.Lock()
	weights := m.weights
	m.mu.Unlock()
	if weights == nil {
		return nil, fmt.Errorf("ridge model is not fitted")
	}

	cols, dims := weights.Dims()
	out := make([]dataset.LabelVector, len(batch))
	for i, spectrum := range batch {
		if spectrum.Bins() != cols-1 {
			return nil, fmt.Errorf("spectrum has %d bins, model expects %d", spectrum.Bins(), cols-1)
		}
		label := make(dataset.LabelVector, dims)
		for d := 0; d < dims; d++ {
			v := weights.At(0, d)
			for j, flux := range spectrum {
				v += weights.At(j+1, d) * flux
			}
			label[d] = v
		}
		out[i] = label
	}
	return out, nil
}

// PredictStochastic perturbs deterministic outputs with the per-dimension
// training residual spread, approximating a dropout-style inference mode.
func (m *Ridge) PredictStochastic(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error) {
	out, err := m.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, label := range out {
		for d := range label {
			label[d] += m.stream.NormFloat64() * m.residualStd[d]
		}
	}
	return out, nil
}

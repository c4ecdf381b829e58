// Package testkit provides synthetic spectra, label generators, and mock
// models shared by the test suites.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/ports"
)

// SyntheticReferenceSet builds n spectra of the given bin count whose labels
// are a fixed linear function of the flux plus small noise, so a linear
// baseline can recover them. Labels are (Teff-like, logg-like, [Fe/H]-like)
// in plausible physical ranges.
func SyntheticReferenceSet(n, bins int, stream *rand.Rand) *dataset.ReferenceSet {
	set := &dataset.ReferenceSet{
		Spectra: make([]dataset.Spectrum, n),
		Labels:  make([]dataset.LabelVector, n),
		Errors:  make([]dataset.Spectrum, n),
	}
	for i := 0; i < n; i++ {
		s := make(dataset.Spectrum, bins)
		e := make(dataset.Spectrum, bins)
		sum := 0.0
		for j := range s {
			s[j] = 1.0 + 0.1*stream.NormFloat64()
			e[j] = 0.01 + 0.005*stream.Float64()
			sum += s[j]
		}
		mean := sum / float64(bins)

		set.Spectra[i] = s
		set.Errors[i] = e
		set.Labels[i] = dataset.LabelVector{
			4000 + 2000*(mean-1) + 5*stream.NormFloat64(),
			2.5 + 1.5*(s[0]-1) + 0.01*stream.NormFloat64(),
			-1.0 + 0.8*(s[bins-1]-1) + 0.01*stream.NormFloat64(),
		}
	}
	return set
}

// HalfConstantSet builds n spectra where even rows are all-constant
// (zero variance) and odd rows carry signal. Labels encode the row index so
// removal pairing can be asserted.
func HalfConstantSet(n, bins int, stream *rand.Rand) *dataset.ReferenceSet {
	set := &dataset.ReferenceSet{
		Spectra: make([]dataset.Spectrum, n),
		Labels:  make([]dataset.LabelVector, n),
	}
	for i := 0; i < n; i++ {
		s := make(dataset.Spectrum, bins)
		if i%2 == 0 {
			for j := range s {
				s[j] = 1.0
			}
		} else {
			for j := range s {
				s[j] = 1.0 + 0.2*stream.NormFloat64()
			}
		}
		set.Spectra[i] = s
		set.Labels[i] = dataset.LabelVector{float64(i), float64(i), float64(i)}
	}
	return set
}

// InjectNaN replaces roughly fraction of all flux values with NaN, in place
func InjectNaN(set *dataset.ReferenceSet, fraction float64, stream *rand.Rand) int {
	injected := 0
	for _, s := range set.Spectra {
		for j := range s {
			if stream.Float64() < fraction {
				s[j] = math.NaN()
				injected++
			}
		}
	}
	return injected
}

// FixedModel is a mock regressor returning a fixed normalized label vector
// plus zero-mean Gaussian noise of known spread. NoiseStd 0 makes it fully
// deterministic.
type FixedModel struct {
	Value    dataset.LabelVector
	NoiseStd float64

	mu     sync.Mutex
	stream *rand.Rand
	calls  int
}

// NewFixedModel creates a fixed-output mock model
func NewFixedModel(value dataset.LabelVector, noiseStd float64, stream *rand.Rand) *FixedModel {
	return &FixedModel{Value: value, NoiseStd: noiseStd, stream: stream}
}

var (
	_ ports.Regressor           = (*FixedModel)(nil)
	_ ports.StochasticRegressor = (*FixedModel)(nil)
)

// Predict returns the fixed value with noise applied per ensemble member
func (m *FixedModel) Predict(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]dataset.LabelVector, len(batch))
	for i := range batch {
		label := m.Value.Clone()
		if m.NoiseStd > 0 {
			for d := range label {
				label[d] += m.stream.NormFloat64() * m.NoiseStd
			}
		}
		out[i] = label
	}
	return out, nil
}

// PredictStochastic behaves like Predict; the noise is the stochastic mode
func (m *FixedModel) PredictStochastic(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error) {
	return m.Predict(ctx, batch)
}

// Calls reports how many batched predictions were made
func (m *FixedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FailingModel fails every forward pass after an optional number of
// successful batches, for exercising mid-ensemble failure handling.
type FailingModel struct {
	Fallback     ports.Regressor
	FailAfter    int
	mu           sync.Mutex
	batchesSoFar int
}

var _ ports.Regressor = (*FailingModel)(nil)

func (m *FailingModel) Predict(ctx context.Context, batch []dataset.Spectrum) ([]dataset.LabelVector, error) {
	m.mu.Lock()
	failNow := m.batchesSoFar >= m.FailAfter
	m.batchesSoFar++
	m.mu.Unlock()
	if failNow || m.Fallback == nil {
		return nil, fmt.Errorf("inference backend unavailable")
	}
	return m.Fallback.Predict(ctx, batch)
}

// Package propagate estimates per-label predictive uncertainty for a trained
// model's output on a single spectrum, without access to ground truth. It
// builds an ensemble of perturbed copies, runs them through the opaque model
// capability, inverts label normalization, and summarizes the resulting
// distribution per dimension.
package propagate

import (
	"context"
	"math/rand"

	mstats "github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal"
	"github.com/salmanhiro/starnet/internal/normalize"
	"github.com/salmanhiro/starnet/ports"
)

// Policy selects how ensemble members are perturbed
type Policy string

const (
	// PolicyNoise adds zero-mean Gaussian noise to the input flux, scaled
	// per bin by the acquisition error spectrum when one is available
	PolicyNoise Policy = "noise"
	// PolicyStochastic repeats identical inputs through the model's
	// noise-injected inference mode
	PolicyStochastic Policy = "stochastic"
	// PolicyBoth perturbs inputs and uses stochastic inference
	PolicyBoth Policy = "both"
)

// Config parameterizes one uncertainty estimate. Nothing here is hardcoded
// in the propagator itself.
type Config struct {
	K          int    // ensemble size, minimum 2
	Policy     Policy // perturbation policy
	NoiseScale float64

	// ErrorSpectrum optionally supplies the per-bin noise estimate from the
	// acquisition pipeline; when nil, PolicyNoise uses NoiseScale uniformly.
	ErrorSpectrum dataset.Spectrum

	Percentile   float64 // central interval width, e.g. 95; 0 disables bounds
	MaxBatch     int     // members per model call; 0 means one batched call
	KeepEnsemble bool    // retain raw ensemble members on the sample
}

// DefaultConfig returns the propagation defaults used by the CLI
func DefaultConfig() Config {
	return Config{
		K:          200,
		Policy:     PolicyNoise,
		NoiseScale: 1.0,
		Percentile: 95,
		MaxBatch:   64,
	}
}

// Propagator turns model predictions into physical-unit uncertainty
// estimates. It holds only the frozen normalization stats; every Estimate
// call is otherwise self-contained.
type Propagator struct {
	stats *dataset.NormalizationStats
	log   *internal.Logger
}

// New creates a propagator bound to frozen normalization stats
func New(stats *dataset.NormalizationStats) *Propagator {
	return &Propagator{
		stats: stats,
		log:   internal.DefaultLogger.WithComponent("propagate"),
	}
}

// Estimate produces the ensemble summary for one spectrum. Any model failure
// for any member fails the whole estimate: a partial ensemble is a biased
// subsample and would understate the true uncertainty.
func (p *Propagator) Estimate(ctx context.Context, model ports.Regressor, spectrum dataset.Spectrum, cfg Config, stream *rand.Rand) (*dataset.PredictionSample, error) {
	if cfg.K < 2 {
		return nil, core.NewInsufficientSamplesError(cfg.K)
	}
	if err := p.stats.Validate(); err != nil {
		return nil, err
	}

	stochastic, err := resolveModel(model, cfg.Policy)
	if err != nil {
		return nil, err
	}

	members := p.buildEnsemble(spectrum, cfg, stream)

	normalized, err := p.predictAll(ctx, model, stochastic, members, cfg)
	if err != nil {
		return nil, err
	}

	physical, err := normalize.Invert(normalized, p.stats)
	if err != nil {
		return nil, err
	}

	sample, err := p.summarize(spectrum, physical, cfg)
	if err != nil {
		return nil, err
	}

	p.log.Debug("estimated uncertainty from %d members under policy %s", cfg.K, cfg.Policy)
	return sample, nil
}

// resolveModel checks the model exposes the capability the policy needs
func resolveModel(model ports.Regressor, policy Policy) (ports.StochasticRegressor, error) {
	switch policy {
	case PolicyNoise:
		return nil, nil
	case PolicyStochastic, PolicyBoth:
		stochastic, ok := model.(ports.StochasticRegressor)
		if !ok {
			return nil, core.NewValidationError("propagation_policy",
				string(policy)+" requires a model with stochastic inference")
		}
		return stochastic, nil
	default:
		return nil, core.NewValidationError("propagation_policy", "unknown policy "+string(policy))
	}
}

// buildEnsemble materializes the K perturbed input copies. Members drawn
// from the single injected stream stay reproducible for a fixed seed.
func (p *Propagator) buildEnsemble(spectrum dataset.Spectrum, cfg Config, stream *rand.Rand) []dataset.Spectrum {
	members := make([]dataset.Spectrum, cfg.K)
	for k := 0; k < cfg.K; k++ {
		if cfg.Policy == PolicyStochastic {
			// identical inputs; the model supplies the randomness
			members[k] = spectrum
			continue
		}
		perturbed := spectrum.Clone()
		for bin := range perturbed {
			sigma := cfg.NoiseScale
			if cfg.ErrorSpectrum != nil && bin < len(cfg.ErrorSpectrum) {
				sigma = cfg.NoiseScale * cfg.ErrorSpectrum[bin]
			}
			perturbed[bin] += stream.NormFloat64() * sigma
		}
		members[k] = perturbed
	}
	return members
}

// predictAll runs the ensemble through the model in MaxBatch chunks. Chunks
// run concurrently; the first failure cancels the rest.
func (p *Propagator) predictAll(ctx context.Context, model ports.Regressor, stochastic ports.StochasticRegressor, members []dataset.Spectrum, cfg Config) ([]dataset.LabelVector, error) {
	batch := cfg.MaxBatch
	if batch <= 0 || batch > len(members) {
		batch = len(members)
	}

	outputs := make([]dataset.LabelVector, len(members))
	group, groupCtx := errgroup.WithContext(ctx)

	for offset := 0; offset < len(members); offset += batch {
		offset := offset
		end := offset + batch
		if end > len(members) {
			end = len(members)
		}
		group.Go(func() error {
			var (
				predicted []dataset.LabelVector
				err       error
			)
			if stochastic != nil {
				predicted, err = stochastic.PredictStochastic(groupCtx, members[offset:end])
			} else {
				predicted, err = model.Predict(groupCtx, members[offset:end])
			}
			if err != nil {
				return core.NewPropagationError(offset, err)
			}
			if len(predicted) != end-offset {
				return core.NewPropagationError(offset, core.ErrPairingMismatch)
			}
			copy(outputs[offset:end], predicted)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// summarize aggregates the physical-unit ensemble per label dimension
func (p *Propagator) summarize(spectrum dataset.Spectrum, ensemble []dataset.LabelVector, cfg Config) (*dataset.PredictionSample, error) {
	dims := p.stats.Dims()
	sample := &dataset.PredictionSample{
		Spectrum:     spectrum,
		Mean:         make(dataset.LabelVector, dims),
		Std:          make(dataset.LabelVector, dims),
		EnsembleSize: len(ensemble),
	}
	if cfg.KeepEnsemble {
		sample.Ensemble = ensemble
	}
	if cfg.Percentile > 0 {
		sample.Lower = make(dataset.LabelVector, dims)
		sample.Upper = make(dataset.LabelVector, dims)
	}

	column := make([]float64, len(ensemble))
	for dim := 0; dim < dims; dim++ {
		for k, member := range ensemble {
			column[k] = member[dim]
		}
		mean, std := stat.MeanStdDev(column, nil)
		sample.Mean[dim] = mean
		sample.Std[dim] = std

		if cfg.Percentile > 0 {
			tail := (100 - cfg.Percentile) / 2
			lower, err := mstats.Percentile(column, tail)
			if err != nil {
				return nil, core.NewPropagationError(dim, err)
			}
			upper, err := mstats.Percentile(column, 100-tail)
			if err != nil {
				return nil, core.NewPropagationError(dim, err)
			}
			sample.Lower[dim] = lower
			sample.Upper[dim] = upper
		}
	}
	return sample, nil
}

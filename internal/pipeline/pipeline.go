// Package pipeline orchestrates a full training run: archive load, cleaning,
// label normalization, deterministic splitting, baseline training, and
// cross-validation scoring. Every run writes a manifest first so the run can
// be replayed bit-for-bit from the same archive and seed.
package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/domain/run"
	"github.com/salmanhiro/starnet/internal"
	"github.com/salmanhiro/starnet/internal/config"
	"github.com/salmanhiro/starnet/internal/errors"
	"github.com/salmanhiro/starnet/internal/normalize"
	"github.com/salmanhiro/starnet/internal/preprocess"
	"github.com/salmanhiro/starnet/internal/propagate"
	"github.com/salmanhiro/starnet/internal/split"
	"github.com/salmanhiro/starnet/ports"
)

// Service wires the pipeline stages behind one entry point
type Service struct {
	cfg   *config.Config
	store ports.SpectrumStore
	rng   ports.RNGPort
	log   *internal.Logger
}

// NewService creates a pipeline service
func NewService(cfg *config.Config, store ports.SpectrumStore, rng ports.RNGPort) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		rng:   rng,
		log:   internal.DefaultLogger.WithComponent("pipeline"),
	}
}

// Result summarizes one completed run
type Result struct {
	Manifest *run.Manifest              `json:"manifest"`
	Stats    *dataset.NormalizationStats `json:"stats"`
	Report   preprocess.CleanReport     `json:"clean_report"`
	TrainLen int                        `json:"train_len"`
	CVLen    int                        `json:"cv_len"`

	// CVMAE is per-dimension mean absolute error on the cross-validation
	// subset, in physical units. Empty when no trainable model was supplied.
	CVMAE dataset.LabelVector `json:"cv_mae,omitempty"`
}

// Run executes the pipeline against the archive at path. When model also
// implements the Trainer capability it is fit on the training subset and
// scored on cross-validation; otherwise the run stops after splitting.
func (s *Service) Run(ctx context.Context, path string, model ports.Regressor) (*Result, error) {
	set, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	s.log.Info("loaded %d spectra of %d bins from %s", set.Len(), set.Spectra[0].Bins(), path)

	manifest := run.NewManifest(s.cfg.Data.Seed, s.cfg.Data.TrainFraction,
		s.cfg.Propagation.EnsembleSize, s.cfg.Propagation.NoiseScale)
	manifest.InputRows = set.Len()

	pre := preprocess.New(s.preprocessConfig())
	cleaned, err := pre.Clean(ctx, set)
	if err != nil {
		return nil, err
	}
	manifest.ScrubbedNaN = cleaned.Report.ScrubbedNaN
	manifest.RemovedZeroVariance = cleaned.Report.RemovedZeroVariance

	stats, err := normalize.Fit(cleaned.Set.Labels)
	if err != nil {
		return nil, err
	}
	if err := normalize.Save(stats, s.cfg.Paths.StatsFile); err != nil {
		return nil, err
	}

	normalized, err := normalize.Apply(cleaned.Set.Labels, stats)
	if err != nil {
		return nil, err
	}
	working := &dataset.ReferenceSet{
		Spectra: cleaned.Set.Spectra,
		Labels:  normalized,
		Errors:  cleaned.Set.Errors,
	}

	stream, err := s.rng.Stream(ctx, manifest.RunID.String(), "split", s.cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	partition, err := split.Split(working, s.cfg.Data.TrainFraction, stream)
	if err != nil {
		return nil, err
	}
	partition.Seed = s.cfg.Data.Seed
	s.log.Info("split %d rows into %d train / %d cross-validation",
		working.Len(), partition.Train.Len(), partition.CrossValidation.Len())

	result := &Result{
		Manifest: manifest,
		Stats:    stats,
		Report:   cleaned.Report,
		TrainLen: partition.Train.Len(),
		CVLen:    partition.CrossValidation.Len(),
	}

	if trainer, ok := model.(ports.Trainer); ok && model != nil {
		if err := trainer.Fit(ctx, partition.Train); err != nil {
			return nil, errors.Wrap(err, "training baseline model")
		}
		mae, err := s.score(ctx, model, partition.CrossValidation, stats)
		if err != nil {
			return nil, err
		}
		result.CVMAE = mae
		s.log.Info("cross-validation MAE: %v", mae)
	}

	manifest.DatasetHash = s.fingerprint(working)
	if err := s.writeManifest(manifest); err != nil {
		return nil, err
	}

	return result, nil
}

// PredictWithUncertainty estimates labels and their uncertainty for one
// spectrum using the frozen stats from StatsFile.
func (s *Service) PredictWithUncertainty(ctx context.Context, model ports.Regressor, spectrum dataset.Spectrum, errorSpectrum dataset.Spectrum) (*dataset.PredictionSample, error) {
	stats, err := normalize.LoadStats(s.cfg.Paths.StatsFile)
	if err != nil {
		return nil, err
	}

	cfg := propagate.Config{
		K:             s.cfg.Propagation.EnsembleSize,
		Policy:        propagate.Policy(s.cfg.Propagation.Policy),
		NoiseScale:    s.cfg.Propagation.NoiseScale,
		ErrorSpectrum: errorSpectrum,
		Percentile:    s.cfg.Propagation.Percentile,
		MaxBatch:      s.cfg.Propagation.MaxBatch,
	}

	stream, err := s.rng.SeededStream(ctx, "propagate", s.cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	return propagate.New(stats).Estimate(ctx, model, spectrum, cfg, stream)
}

// load pulls the reference set, streaming in bounded batches when the store
// supports it so large archives never fully materialize twice.
func (s *Service) load(ctx context.Context, path string) (*dataset.ReferenceSet, error) {
	labels := dataset.DefaultLabelColumns()

	batcher, ok := s.store.(ports.BatchSpectrumStore)
	if !ok || s.cfg.Data.MaxBatchRows <= 0 {
		return s.store.Load(ctx, path, labels)
	}

	merged := &dataset.ReferenceSet{}
	for offset := 0; ; offset += s.cfg.Data.MaxBatchRows {
		batch, err := batcher.LoadBatch(ctx, path, labels, offset, s.cfg.Data.MaxBatchRows)
		if err != nil {
			// past the final row
			if offset > 0 && (core.IsStorageError(err) || stderrors.Is(err, core.ErrEmptyReferenceSet)) {
				break
			}
			return nil, err
		}
		merged.Spectra = append(merged.Spectra, batch.Spectra...)
		merged.Labels = append(merged.Labels, batch.Labels...)
		if batch.Errors != nil {
			merged.Errors = append(merged.Errors, batch.Errors...)
		}
		if batch.Len() < s.cfg.Data.MaxBatchRows {
			break
		}
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// score computes per-dimension MAE in physical units on the given subset
func (s *Service) score(ctx context.Context, model ports.Regressor, subset *dataset.ReferenceSet, stats *dataset.NormalizationStats) (dataset.LabelVector, error) {
	if subset.Len() == 0 {
		return nil, nil
	}
	predicted, err := model.Predict(ctx, subset.Spectra)
	if err != nil {
		return nil, core.NewPropagationError(0, err)
	}
	physicalPred, err := normalize.Invert(predicted, stats)
	if err != nil {
		return nil, err
	}
	physicalTruth, err := normalize.Invert(subset.Labels, stats)
	if err != nil {
		return nil, err
	}

	mae := make(dataset.LabelVector, stats.Dims())
	for i := range physicalPred {
		for d := range mae {
			mae[d] += math.Abs(physicalPred[i][d] - physicalTruth[i][d])
		}
	}
	for d := range mae {
		mae[d] /= float64(subset.Len())
	}
	return mae, nil
}

func (s *Service) fingerprint(set *dataset.ReferenceSet) core.DatasetHash {
	columns := make(map[core.ColumnKey][]float64, 2)
	flux := make([]float64, 0, set.Len()*set.Spectra[0].Bins())
	for _, spectrum := range set.Spectra {
		flux = append(flux, spectrum...)
	}
	columns[dataset.ColumnSpectrum] = flux

	labels := make([]float64, 0, set.Len()*set.Labels[0].Dims())
	for _, label := range set.Labels {
		labels = append(labels, label...)
	}
	columns["labels"] = labels
	return core.ComputeDatasetHash(columns)
}

func (s *Service) writeManifest(manifest *run.Manifest) error {
	if err := os.MkdirAll(s.cfg.Paths.RunDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating run directory %s", s.cfg.Paths.RunDir)
	}
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding run manifest")
	}
	path := filepath.Join(s.cfg.Paths.RunDir, manifest.RunID.String()+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return errors.Wrapf(err, "writing run manifest %s", path)
	}
	s.log.Debug("wrote run manifest %s", path)
	return nil
}

func (s *Service) preprocessConfig() preprocess.Config {
	cfg := preprocess.DefaultConfig()
	cfg.Workers = s.cfg.Data.CleanWorkers
	if s.cfg.Data.OutlierClip > 0 {
		cfg.Outlier = preprocess.OutlierPolicy{Mode: preprocess.OutlierClip, Sigma: s.cfg.Data.OutlierClip}
	}
	return cfg
}

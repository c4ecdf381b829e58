package pipeline

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salmanhiro/starnet/adapters/columnar"
	"github.com/salmanhiro/starnet/adapters/regressor"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal/config"
	"github.com/salmanhiro/starnet/internal/rng"
	"github.com/salmanhiro/starnet/internal/testkit"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Paths: config.PathConfig{
			ArchiveFile: filepath.Join(dir, "archive.cols"),
			StatsFile:   filepath.Join(dir, "label_stats.json"),
			RunDir:      filepath.Join(dir, "runs"),
		},
		Data: config.DataConfig{
			TrainFraction: 0.9,
			Seed:          42,
			MaxBatchRows:  64,
			CleanWorkers:  2,
		},
		Propagation: config.PropagationConfig{
			EnsembleSize: 100,
			NoiseScale:   0.01,
			Policy:       "noise",
			MaxBatch:     32,
			Percentile:   95,
		},
	}
}

func writeArchive(t *testing.T, cfg *config.Config, set *dataset.ReferenceSet) {
	t.Helper()
	container, err := columnar.BuildContainer(set, dataset.DefaultLabelColumns())
	require.NoError(t, err)
	require.NoError(t, columnar.Save(container, cfg.Paths.ArchiveFile))
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stream := rand.New(rand.NewSource(7))

	set := testkit.SyntheticReferenceSet(200, 16, stream)
	writeArchive(t, cfg, set)

	service := NewService(cfg, columnar.NewStore(), rng.NewAdapter())
	model := regressor.NewRidge(1.0, rand.New(rand.NewSource(8)))

	result, err := service.Run(ctx, cfg.Paths.ArchiveFile, model)
	require.NoError(t, err)

	require.Equal(t, 180, result.TrainLen, "train subset should be floor(0.9*200)")
	require.Equal(t, 20, result.CVLen, "cross-validation gets the remainder")
	require.Equal(t, 200, result.Manifest.InputRows)
	require.NotEmpty(t, result.Manifest.DatasetHash)

	// stats file persisted alongside the run
	_, err = os.Stat(cfg.Paths.StatsFile)
	require.NoError(t, err, "normalization stats should be written")

	// manifest written under the run directory
	manifestPath := filepath.Join(cfg.Paths.RunDir, result.Manifest.RunID.String()+".json")
	_, err = os.Stat(manifestPath)
	require.NoError(t, err, "run manifest should be written")

	// baseline was trained and scored
	require.Len(t, result.CVMAE, 3)
	for d, mae := range result.CVMAE {
		require.False(t, math.IsNaN(mae), "MAE dim %d is NaN", d)
		require.GreaterOrEqual(t, mae, 0.0)
	}
	// the synthetic labels are nearly linear in flux, so the baseline should
	// land well inside the label spread (Teff spans hundreds of Kelvin)
	require.Less(t, result.CVMAE[0], 200.0, "Teff MAE out of range")
}

func TestRun_BatchedLoadMatchesSingleLoad(t *testing.T) {
	ctx := context.Background()
	stream := rand.New(rand.NewSource(9))
	set := testkit.SyntheticReferenceSet(150, 8, stream)

	batched := testConfig(t)
	batched.Data.MaxBatchRows = 32
	writeArchive(t, batched, set)

	whole := testConfig(t)
	whole.Data.MaxBatchRows = 0
	whole.Paths.ArchiveFile = batched.Paths.ArchiveFile

	adapter := rng.NewAdapter()
	store := columnar.NewStore()

	a, err := NewService(batched, store, adapter).Run(ctx, batched.Paths.ArchiveFile, nil)
	require.NoError(t, err)
	b, err := NewService(whole, store, adapter).Run(ctx, whole.Paths.ArchiveFile, nil)
	require.NoError(t, err)

	require.Equal(t, a.Manifest.InputRows, b.Manifest.InputRows)
	require.Equal(t, a.TrainLen, b.TrainLen)
	require.Equal(t, a.CVLen, b.CVLen)
	require.Equal(t, a.Manifest.DatasetHash, b.Manifest.DatasetHash,
		"batched and whole loads should see the same reference set")
}

func TestPredictWithUncertainty(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stream := rand.New(rand.NewSource(10))

	set := testkit.SyntheticReferenceSet(200, 16, stream)
	writeArchive(t, cfg, set)

	service := NewService(cfg, columnar.NewStore(), rng.NewAdapter())
	model := regressor.NewRidge(1.0, rand.New(rand.NewSource(11)))

	_, err := service.Run(ctx, cfg.Paths.ArchiveFile, model)
	require.NoError(t, err)

	sample, err := service.PredictWithUncertainty(ctx, model, set.Spectra[0], set.Errors[0])
	require.NoError(t, err)

	require.Equal(t, cfg.Propagation.EnsembleSize, sample.EnsembleSize)
	require.Len(t, sample.Mean, 3)
	for d := range sample.Mean {
		require.False(t, math.IsNaN(sample.Mean[d]))
		require.GreaterOrEqual(t, sample.Std[d], 0.0)
		require.LessOrEqual(t, sample.Lower[d], sample.Upper[d])
	}
	// physical units: effective temperature should land in a stellar range
	require.InDelta(t, 4000, sample.Mean[0], 2000)
}

func TestPredictWithUncertainty_ReproducibleForSameSeed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stream := rand.New(rand.NewSource(12))

	set := testkit.SyntheticReferenceSet(120, 8, stream)
	writeArchive(t, cfg, set)

	service := NewService(cfg, columnar.NewStore(), rng.NewAdapter())
	model := regressor.NewRidge(1.0, rand.New(rand.NewSource(13)))

	_, err := service.Run(ctx, cfg.Paths.ArchiveFile, model)
	require.NoError(t, err)

	first, err := service.PredictWithUncertainty(ctx, model, set.Spectra[3], nil)
	require.NoError(t, err)
	second, err := service.PredictWithUncertainty(ctx, model, set.Spectra[3], nil)
	require.NoError(t, err)

	require.Equal(t, first.Mean, second.Mean, "seeded propagation should be reproducible")
	require.Equal(t, first.Std, second.Std)
}

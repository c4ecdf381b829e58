package normalize

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/domain/dataset"
)

func TestFitApplyInvertRoundTrip(t *testing.T) {
	labels := []dataset.LabelVector{
		{4500, 2.1, -0.5},
		{5800, 4.4, 0.1},
		{3900, 1.2, -1.8},
		{6100, 4.6, 0.3},
		{5200, 3.0, -0.2},
	}

	stats, err := Fit(labels)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Dims())

	normalized, err := Apply(labels, stats)
	require.NoError(t, err)

	// Normalized columns are centered
	for dim := 0; dim < 3; dim++ {
		sum := 0.0
		for _, l := range normalized {
			sum += l[dim]
		}
		require.InDelta(t, 0, sum/float64(len(normalized)), 1e-9)
	}

	recovered, err := Invert(normalized, stats)
	require.NoError(t, err)
	for i := range labels {
		for dim := range labels[i] {
			relErr := math.Abs(recovered[i][dim]-labels[i][dim]) / math.Max(math.Abs(labels[i][dim]), 1)
			require.LessOrEqual(t, relErr, 1e-9,
				"round trip diverged at row %d dim %d", i, dim)
		}
	}
}

func TestFitRejectsDegenerateDimension(t *testing.T) {
	labels := []dataset.LabelVector{
		{4500, 3.0, -0.5},
		{5800, 3.0, 0.1},
		{3900, 3.0, -1.8},
	}

	_, err := Fit(labels)
	require.Error(t, err)
	require.True(t, core.IsDegenerateDimensionError(err))
}

func TestFitRejectsEmptyAndRagged(t *testing.T) {
	_, err := Fit(nil)
	require.ErrorIs(t, err, core.ErrEmptyReferenceSet)

	_, err = Fit([]dataset.LabelVector{{1, 2, 3}, {1, 2}})
	require.ErrorIs(t, err, core.ErrPairingMismatch)
}

func TestApplyRejectsInvalidStats(t *testing.T) {
	stats := &dataset.NormalizationStats{Mean: []float64{0, 0}, Std: []float64{1, 0}}
	_, err := Apply([]dataset.LabelVector{{1, 2}}, stats)
	require.True(t, core.IsDegenerateDimensionError(err))
}

func TestStatsSaveLoadRoundTripExact(t *testing.T) {
	stats := &dataset.NormalizationStats{
		Mean: []float64{4823.129384710234, 2.718281828459045, -0.3333333333333333},
		Std:  []float64{712.0000001, 1.0 / 3.0, 0.0001},
	}

	path := filepath.Join(t.TempDir(), "label_stats.json")
	require.NoError(t, Save(stats, path))

	loaded, err := LoadStats(path)
	require.NoError(t, err)

	// Persistence must round-trip exactly, not approximately
	require.Equal(t, stats.Mean, loaded.Mean)
	require.Equal(t, stats.Std, loaded.Std)
}

func TestLoadStatsRejectsDegenerate(t *testing.T) {
	stats := &dataset.NormalizationStats{Mean: []float64{1}, Std: []float64{0}}
	path := filepath.Join(t.TempDir(), "bad_stats.json")
	require.Error(t, Save(stats, path))
}

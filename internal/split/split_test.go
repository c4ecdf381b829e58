package split

import (
	"math/rand"
	"testing"

	"github.com/salmanhiro/starnet/domain/core"
	"github.com/salmanhiro/starnet/internal/testkit"
)

func newStream(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestSplit_SizesAndDisjointness(t *testing.T) {
	set := testkit.SyntheticReferenceSet(1000, 8, newStream(1))

	partition, err := Split(set, 0.9, newStream(99))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if partition.Train.Len() != 900 {
		t.Errorf("expected 900 train rows, got %d", partition.Train.Len())
	}
	if partition.CrossValidation.Len() != 100 {
		t.Errorf("expected 100 cross-validation rows, got %d", partition.CrossValidation.Len())
	}

	// Labels are effectively unique in the synthetic set, so membership in
	// both partitions means a row leaked across the cut
	seen := make(map[float64]bool, 900)
	for _, label := range partition.Train.Labels {
		seen[label[0]] = true
	}
	for _, label := range partition.CrossValidation.Labels {
		if seen[label[0]] {
			t.Errorf("row with label %v appears in both partitions", label[0])
		}
	}
}

func TestSplit_DeterministicForSameSeed(t *testing.T) {
	set := testkit.SyntheticReferenceSet(200, 8, newStream(2))

	first, err := Split(set, 0.9, newStream(1234))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := Split(set, 0.9, newStream(1234))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for i := range first.Train.Labels {
		if first.Train.Labels[i][0] != second.Train.Labels[i][0] {
			t.Fatalf("partitions diverge at train row %d for identical seeds", i)
		}
	}
}

func TestSplit_DifferentSeedsDiverge(t *testing.T) {
	set := testkit.SyntheticReferenceSet(500, 8, newStream(3))

	first, _ := Split(set, 0.9, newStream(1))
	second, _ := Split(set, 0.9, newStream(2))

	identical := true
	for i := range first.Train.Labels {
		if first.Train.Labels[i][0] != second.Train.Labels[i][0] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("different seeds produced identical partitions")
	}
}

func TestSplit_ShufflesBeforeCutting(t *testing.T) {
	// Source archives arrive grouped; the cut must not preserve input order
	set := testkit.SyntheticReferenceSet(300, 8, newStream(4))

	partition, err := Split(set, 0.9, newStream(7))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	inOrder := true
	for i := range partition.Train.Spectra {
		if &partition.Train.Spectra[i][0] != &set.Spectra[i][0] {
			inOrder = false
			break
		}
	}
	if inOrder {
		t.Error("train partition preserves input order; no shuffle happened")
	}
}

func TestSplit_RejectsInvalidFractions(t *testing.T) {
	set := testkit.SyntheticReferenceSet(10, 8, newStream(5))

	for _, fraction := range []float64{0, 1, -0.5, 1.5} {
		if _, err := Split(set, fraction, newStream(1)); !core.IsInvalidFractionError(err) {
			t.Errorf("fraction %v: expected InvalidFraction error, got %v", fraction, err)
		}
	}
}

func TestSplit_UnionEqualsInput(t *testing.T) {
	set := testkit.SyntheticReferenceSet(101, 8, newStream(6))

	partition, err := Split(set, 0.9, newStream(8))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if got := partition.Train.Len() + partition.CrossValidation.Len(); got != set.Len() {
		t.Errorf("partition union has %d rows, input has %d", got, set.Len())
	}
}

package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/salmanhiro/starnet/domain/core"
)

func TestSpectrum_StdDev(t *testing.T) {
	cases := []struct {
		name string
		s    Spectrum
		want float64
	}{
		{"constant", Spectrum{2, 2, 2, 2}, 0},
		{"empty", Spectrum{}, 0},
		{"two values", Spectrum{0, 2}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.s.StdDev(); got != tc.want {
				t.Errorf("StdDev() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSpectrum_HasNaN(t *testing.T) {
	if (Spectrum{1, 2, 3}).HasNaN() {
		t.Error("clean spectrum reported NaN")
	}
	if !(Spectrum{1, math.NaN(), 3}).HasNaN() {
		t.Error("NaN not detected")
	}
}

func TestSpectrum_ChannelsRoundTrip(t *testing.T) {
	s := Spectrum{0.5, 1.5, 2.5, 3.5}
	channels := s.Channels()

	if len(channels) != s.Bins() {
		t.Fatalf("channel count %d, want %d", len(channels), s.Bins())
	}
	for i, ch := range channels {
		if len(ch) != 1 {
			t.Fatalf("bin %d has %d channels, want 1", i, len(ch))
		}
		if ch[0] != s[i] {
			t.Errorf("bin %d reordered: got %v, want %v", i, ch[0], s[i])
		}
	}

	flat := channels.Flatten()
	for i := range s {
		if flat[i] != s[i] {
			t.Errorf("flatten changed bin %d", i)
		}
	}
}

func TestSpectrum_CloneIsIndependent(t *testing.T) {
	s := Spectrum{1, 2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] != 1 {
		t.Error("mutating the clone changed the original")
	}
}

func TestReferenceSet_Validate(t *testing.T) {
	valid := &ReferenceSet{
		Spectra: []Spectrum{{1, 2}, {3, 4}},
		Labels:  []LabelVector{{5000, 4.5, 0}, {4800, 4.2, -0.3}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}

	empty := &ReferenceSet{}
	if err := empty.Validate(); !errors.Is(err, core.ErrEmptyReferenceSet) {
		t.Errorf("empty set: got %v", err)
	}

	unpaired := &ReferenceSet{
		Spectra: []Spectrum{{1, 2}, {3, 4}},
		Labels:  []LabelVector{{5000, 4.5, 0}},
	}
	if err := unpaired.Validate(); !errors.Is(err, core.ErrPairingMismatch) {
		t.Errorf("unpaired set: got %v", err)
	}

	ragged := &ReferenceSet{
		Spectra: []Spectrum{{1, 2}, {3, 4, 5}},
		Labels:  []LabelVector{{5000}, {4800}},
	}
	if err := ragged.Validate(); !core.IsStorageError(err) {
		t.Errorf("ragged bins: got %v", err)
	}

	badErrors := &ReferenceSet{
		Spectra: []Spectrum{{1, 2}},
		Labels:  []LabelVector{{5000}},
		Errors:  []Spectrum{{0.1}},
	}
	if err := badErrors.Validate(); !core.IsStorageError(err) {
		t.Errorf("misaligned error spectra: got %v", err)
	}
}

func TestReferenceSet_SubsetPreservesOrderAndPairing(t *testing.T) {
	set := &ReferenceSet{
		Spectra: []Spectrum{{0}, {1}, {2}, {3}},
		Labels:  []LabelVector{{0}, {10}, {20}, {30}},
		Errors:  []Spectrum{{0.0}, {0.1}, {0.2}, {0.3}},
	}

	sub := set.Subset([]int{3, 1})
	if sub.Len() != 2 {
		t.Fatalf("subset length %d, want 2", sub.Len())
	}
	if sub.Spectra[0][0] != 3 || sub.Labels[0][0] != 30 || sub.Errors[0][0] != 0.3 {
		t.Error("row 3 not carried intact at position 0")
	}
	if sub.Spectra[1][0] != 1 || sub.Labels[1][0] != 10 || sub.Errors[1][0] != 0.1 {
		t.Error("row 1 not carried intact at position 1")
	}
}

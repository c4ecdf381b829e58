package dataset

import (
	"math"

	"github.com/salmanhiro/starnet/domain/core"
)

// Well-known column keys in the archive containers. The spectrum column is a
// 2-D block (rows x bins); label and error columns are scalar per row.
const (
	ColumnSpectrum      core.ColumnKey = "spectrum"
	ColumnErrorSpectrum core.ColumnKey = "error_spectrum"
	ColumnTeff          core.ColumnKey = "TEFF"
	ColumnLogG          core.ColumnKey = "LOGG"
	ColumnFeH           core.ColumnKey = "FE_H"
)

// DefaultLabelColumns is the label ordering used throughout the pipeline:
// effective temperature, surface gravity, metallicity.
func DefaultLabelColumns() []core.ColumnKey {
	return []core.ColumnKey{ColumnTeff, ColumnLogG, ColumnFeH}
}

// Spectrum is one observation's flux values, one per wavelength bin. All
// spectra within a reference set share the same length and bin alignment.
type Spectrum []float64

// Bins returns the number of wavelength bins
func (s Spectrum) Bins() int {
	return len(s)
}

// HasNaN reports whether any flux value is NaN
func (s Spectrum) HasNaN() bool {
	for _, v := range s {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// StdDev computes the population standard deviation of the flux values.
// Degenerate all-constant spectra return exactly 0.
func (s Spectrum) StdDev() float64 {
	if len(s) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range s {
		mean += v
	}
	mean /= float64(len(s))
	variance := 0.0
	for _, v := range s {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(s))
	return math.Sqrt(variance)
}

// ChannelSpectrum is a spectrum in the shape the convolution stage consumes:
// one length-1 channel vector per wavelength bin.
type ChannelSpectrum [][]float64

// Channels reshapes the spectrum into bins-by-1 channel form. The transform
// is purely structural and order preserving.
func (s Spectrum) Channels() ChannelSpectrum {
	out := make(ChannelSpectrum, len(s))
	for i, v := range s {
		out[i] = []float64{v}
	}
	return out
}

// Flatten collapses channel form back into a flat spectrum
func (c ChannelSpectrum) Flatten() Spectrum {
	out := make(Spectrum, len(c))
	for i, ch := range c {
		if len(ch) > 0 {
			out[i] = ch[0]
		}
	}
	return out
}

// Clone returns an independent copy of the spectrum
func (s Spectrum) Clone() Spectrum {
	out := make(Spectrum, len(s))
	copy(out, s)
	return out
}

// LabelVector holds the physical stellar parameters paired with one spectrum,
// ordered per DefaultLabelColumns.
type LabelVector []float64

// Dims returns the number of label dimensions
func (l LabelVector) Dims() int {
	return len(l)
}

// Clone returns an independent copy of the label vector
func (l LabelVector) Clone() LabelVector {
	out := make(LabelVector, len(l))
	copy(out, l)
	return out
}

// ReferenceSet is the cleaned/cleanable collection of paired spectra and
// labels. Row index is the implicit identifier; Spectra[i] pairs with
// Labels[i] for every i. Errors is optional per-bin noise, row-aligned with
// Spectra when present.
type ReferenceSet struct {
	Spectra []Spectrum
	Labels  []LabelVector
	Errors  []Spectrum
}

// Len returns the number of (spectrum, label) pairs
func (r *ReferenceSet) Len() int {
	return len(r.Spectra)
}

// Validate checks pairing and bin-alignment invariants
func (r *ReferenceSet) Validate() error {
	if len(r.Spectra) == 0 {
		return core.ErrEmptyReferenceSet
	}
	if len(r.Labels) != len(r.Spectra) {
		return core.ErrPairingMismatch
	}
	if r.Errors != nil && len(r.Errors) != len(r.Spectra) {
		return core.ErrPairingMismatch
	}
	bins := r.Spectra[0].Bins()
	for i, s := range r.Spectra {
		if s.Bins() != bins {
			return core.NewLengthMismatchError(ColumnSpectrum, s.Bins(), bins)
		}
		if r.Errors != nil && r.Errors[i].Bins() != bins {
			return core.NewLengthMismatchError(ColumnErrorSpectrum, r.Errors[i].Bins(), bins)
		}
	}
	dims := r.Labels[0].Dims()
	for _, l := range r.Labels {
		if l.Dims() != dims {
			return core.ErrPairingMismatch
		}
	}
	return nil
}

// Subset returns a new reference set containing the given row indices, in the
// given order. Spectra and labels are shared, not copied; callers treat them
// as immutable once loaded.
func (r *ReferenceSet) Subset(indices []int) *ReferenceSet {
	out := &ReferenceSet{
		Spectra: make([]Spectrum, 0, len(indices)),
		Labels:  make([]LabelVector, 0, len(indices)),
	}
	if r.Errors != nil {
		out.Errors = make([]Spectrum, 0, len(indices))
	}
	for _, idx := range indices {
		out.Spectra = append(out.Spectra, r.Spectra[idx])
		out.Labels = append(out.Labels, r.Labels[idx])
		if r.Errors != nil {
			out.Errors = append(out.Errors, r.Errors[idx])
		}
	}
	return out
}

// Split is a disjoint train/cross-validation partition of a reference set
type Split struct {
	Train           *ReferenceSet
	CrossValidation *ReferenceSet
	TrainFraction   float64
	Seed            int64
}

// Package preprocess turns raw archive spectra into training-ready form:
// NaN scrubbing, degenerate-spectrum rejection, and the channel reshape the
// convolution stage expects. Removals here are policy, not errors; they are
// counted and logged so an audit can reconcile input and output row counts.
package preprocess

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal"
)

// OutlierMode selects the optional flux-outlier policy
type OutlierMode string

const (
	OutlierOff  OutlierMode = "off"
	OutlierClip OutlierMode = "clip"
)

// OutlierPolicy is deliberately explicit configuration: the acquisition
// pipeline documents no clipping threshold, so nothing is inferred.
type OutlierPolicy struct {
	Mode  OutlierMode
	Sigma float64 // clip values beyond Sigma spectrum-stddevs from the mean
}

// Config controls cleaning behavior
type Config struct {
	Workers int // concurrent spectra scrubbed; <=1 means serial
	Outlier OutlierPolicy
}

// DefaultConfig returns cleaning defaults: serial-safe worker pool, no
// outlier handling.
func DefaultConfig() Config {
	return Config{
		Workers: 4,
		Outlier: OutlierPolicy{Mode: OutlierOff},
	}
}

// CleanReport counts what cleaning did to the reference set
type CleanReport struct {
	InputRows           int
	OutputRows          int
	ScrubbedNaN         int
	RemovedZeroVariance int
	ClippedValues       int
}

// Result is the training-ready output of one clean pass. Channels holds the
// same surviving spectra in the bins-by-1 shape the convolution stage
// consumes, in the same row order as Set.
type Result struct {
	Set      *dataset.ReferenceSet
	Channels []dataset.ChannelSpectrum
	Report   CleanReport
}

// Preprocessor cleans reference sets. It is stateless across calls.
type Preprocessor struct {
	cfg Config
	log *internal.Logger
}

// New creates a preprocessor
func New(cfg Config) *Preprocessor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Preprocessor{
		cfg: cfg,
		log: internal.DefaultLogger.WithComponent("preprocess"),
	}
}

// Clean applies the ordered cleaning steps to a reference set:
//
//  1. every NaN flux value becomes 0.0, so NaN never reaches downstream
//     arithmetic where it would silently corrupt normalization statistics
//  2. spectra whose flux standard deviation is exactly zero are dropped with
//     their paired labels, since an all-constant spectrum carries no signal
//     and would divide by zero under per-spectrum normalization
//  3. each survivor is reshaped to bins-by-1 channel form, order preserved
//
// The input set is not mutated; spectra are copied before scrubbing.
func (p *Preprocessor) Clean(ctx context.Context, set *dataset.ReferenceSet) (*Result, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	n := set.Len()
	scrubbed := make([]dataset.Spectrum, n)
	nanCounts := make([]int, n)
	clipCounts := make([]int, n)
	stddevs := make([]float64, n)

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Workers)
	for i := 0; i < n; i++ {
		i := i
		group.Go(func() error {
			s := set.Spectra[i].Clone()
			nanCounts[i] = scrubNaN(s)
			if p.cfg.Outlier.Mode == OutlierClip && p.cfg.Outlier.Sigma > 0 {
				clipCounts[i] = clipOutliers(s, p.cfg.Outlier.Sigma)
			}
			stddevs[i] = s.StdDev()
			scrubbed[i] = s
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := CleanReport{InputRows: n}
	out := &dataset.ReferenceSet{}
	if set.Errors != nil {
		out.Errors = make([]dataset.Spectrum, 0, n)
	}
	channels := make([]dataset.ChannelSpectrum, 0, n)

	for i := 0; i < n; i++ {
		report.ScrubbedNaN += nanCounts[i]
		report.ClippedValues += clipCounts[i]
		if stddevs[i] == 0 {
			report.RemovedZeroVariance++
			continue
		}
		out.Spectra = append(out.Spectra, scrubbed[i])
		out.Labels = append(out.Labels, set.Labels[i])
		if set.Errors != nil {
			out.Errors = append(out.Errors, set.Errors[i])
		}
		channels = append(channels, scrubbed[i].Channels())
	}
	report.OutputRows = out.Len()

	p.log.Info("cleaned %d spectra: %d NaN scrubbed, %d zero-variance removed, %d survive",
		report.InputRows, report.ScrubbedNaN, report.RemovedZeroVariance, report.OutputRows)
	if report.ClippedValues > 0 {
		p.log.Debug("clipped %d outlier flux values at %.1f sigma", report.ClippedValues, p.cfg.Outlier.Sigma)
	}

	return &Result{Set: out, Channels: channels, Report: report}, nil
}

// scrubNaN zeroes NaN flux in place and returns the count
func scrubNaN(s dataset.Spectrum) int {
	count := 0
	for i, v := range s {
		if math.IsNaN(v) {
			s[i] = 0.0
			count++
		}
	}
	return count
}

// clipOutliers winsorizes flux beyond sigma spectrum-stddevs from the mean
func clipOutliers(s dataset.Spectrum, sigma float64) int {
	sd := s.StdDev()
	if sd == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range s {
		mean += v
	}
	mean /= float64(len(s))

	lo, hi := mean-sigma*sd, mean+sigma*sd
	count := 0
	for i, v := range s {
		switch {
		case v < lo:
			s[i] = lo
			count++
		case v > hi:
			s[i] = hi
			count++
		}
	}
	return count
}

// Package spectral converts a filtered signal segment into a power
// spectrum and picks the dominant in-band frequency as the raw heart-rate
// estimate.
package spectral

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Default estimator configuration constants.
const (
	defaultMinBpm     = 42.0
	defaultMaxBpm     = 240.0
	defaultNoiseFloor = 1e-6
	defaultMinSNR     = 2.0
	minSegmentLen     = 8
)

// Spectrum is the power spectrum of one segment, restricted to the
// configured bpm band.
type Spectrum struct {
	Freqs  []float64 // Hz, ascending
	Powers []float64
}

// Estimate is one raw spectral heart-rate reading.
type Estimate struct {
	Bpm   float64
	Freq  float64 // Hz
	Power float64
}

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithBpmRange sets the band of physiologically plausible heart rates.
// Frequencies outside the band are excluded from peak selection entirely.
func WithBpmRange(minBpm, maxBpm float64) Option {
	return func(e *Estimator) {
		if minBpm > 0 && maxBpm > minBpm {
			e.minBpm = minBpm
			e.maxBpm = maxBpm
		}
	}
}

// WithNoiseFloor sets the absolute power a peak must exceed to count.
func WithNoiseFloor(p float64) Option {
	return func(e *Estimator) {
		if p > 0 {
			e.noiseFloor = p
		}
	}
}

// WithMinSNR sets how far the peak must rise above the mean in-band power.
func WithMinSNR(r float64) Option {
	return func(e *Estimator) {
		if r > 0 {
			e.minSNR = r
		}
	}
}

// Estimator computes Hann-windowed power spectra.
type Estimator struct {
	minBpm     float64
	maxBpm     float64
	noiseFloor float64
	minSNR     float64
}

// New creates an Estimator with configuration options.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		minBpm:     defaultMinBpm,
		maxBpm:     defaultMaxBpm,
		noiseFloor: defaultNoiseFloor,
		minSNR:     defaultMinSNR,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// BpmRange returns the configured band.
func (e *Estimator) BpmRange() (minBpm, maxBpm float64) {
	return e.minBpm, e.maxBpm
}

// Estimate computes the in-band power spectrum of a filtered segment
// sampled at fs Hz and selects the peak. The boolean result is false when
// the segment is too short or no in-band peak rises above the noise floor;
// ties between equal-power bins resolve toward the lower frequency.
func (e *Estimator) Estimate(values []float64, fs float64) (Estimate, Spectrum, bool) {
	n := len(values)
	if n < minSegmentLen || fs <= 0 {
		return Estimate{}, Spectrum{}, false
	}

	// Hann window to reduce spectral leakage.
	seq := make([]float64, n)
	copy(seq, values)
	window.Hann(seq)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, seq)

	lowHz := e.minBpm / 60
	highHz := e.maxBpm / 60

	spec := Spectrum{}
	best := -1
	for i, c := range coeff {
		if i == 0 {
			continue // DC is never a candidate
		}
		freq := fft.Freq(i) * fs
		if freq < lowHz || freq > highHz {
			continue
		}
		power := real(c)*real(c) + imag(c)*imag(c)
		spec.Freqs = append(spec.Freqs, freq)
		spec.Powers = append(spec.Powers, power)
		// Strict comparison keeps the lower frequency on ties.
		if best < 0 || power > spec.Powers[best] {
			best = len(spec.Powers) - 1
		}
	}

	if best < 0 {
		return Estimate{}, spec, false
	}

	peak := Estimate{
		Bpm:   spec.Freqs[best] * 60,
		Freq:  spec.Freqs[best],
		Power: spec.Powers[best],
	}

	if peak.Power < e.noiseFloor {
		return Estimate{}, spec, false
	}
	var total float64
	for _, p := range spec.Powers {
		total += p
	}
	mean := total / float64(len(spec.Powers))
	if len(spec.Powers) > 1 && peak.Power < e.minSNR*mean {
		return Estimate{}, spec, false
	}

	return peak, spec, true
}

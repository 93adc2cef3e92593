// Package filter provides the selectable denoising pipelines applied to a
// resampled signal window before spectral estimation. Both pipelines
// produce zero-mean output so no DC artifact dominates the peak search.
package filter

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Default filter configuration constants.
const (
	defaultLowHz  = 0.7 // 42 bpm
	defaultHighHz = 4.0 // 240 bpm
)

// Mode selects the denoising pipeline.
type Mode int

// Filter modes.
const (
	// ModeDetrend removes baseline drift and centers the segment.
	ModeDetrend Mode = iota

	// ModeBandpass detrends and then suppresses all frequencies outside
	// the plausible heart-rate band.
	ModeBandpass
)

func (m Mode) String() string {
	switch m {
	case ModeDetrend:
		return "detrend"
	case ModeBandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

// ParseMode parses a filter mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detrend", "mean", "detrend_mean":
		return ModeDetrend, nil
	case "", "bandpass", "band", "detrend_band":
		return ModeBandpass, nil
	default:
		return ModeBandpass, fmt.Errorf("unknown filter mode: %q", s)
	}
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithMode selects the denoising pipeline.
func WithMode(m Mode) Option {
	return func(f *Filter) {
		f.mode = m
	}
}

// WithDetrendWindow sets the moving-average window length in samples.
// Zero derives the length from the sample rate (about one second).
func WithDetrendWindow(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.detrendWindow = n
		}
	}
}

// WithBand sets the pass band in Hz for the band-pass pipeline.
func WithBand(lowHz, highHz float64) Option {
	return func(f *Filter) {
		if lowHz > 0 && highHz > lowHz {
			f.lowHz = lowHz
			f.highHz = highHz
		}
	}
}

// Filter applies the configured pipeline to a window segment.
type Filter struct {
	mode          Mode
	detrendWindow int
	lowHz         float64
	highHz        float64
}

// New creates a Filter with configuration options.
func New(opts ...Option) *Filter {
	f := &Filter{
		mode:   ModeBandpass,
		lowHz:  defaultLowHz,
		highHz: defaultHighHz,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Mode returns the selected pipeline.
func (f *Filter) Mode() Mode {
	return f.mode
}

// Band returns the configured pass band in Hz.
func (f *Filter) Band() (lowHz, highHz float64) {
	return f.lowHz, f.highHz
}

// Apply runs the pipeline over values sampled at fs Hz and returns a
// same-length filtered sequence. The input is not modified.
func (f *Filter) Apply(values []float64, fs float64) []float64 {
	out := f.detrend(values, fs)

	if f.mode == ModeBandpass {
		out = bandpass(out, fs, f.lowHz, f.highHz)
	}

	// Exact mean removal; the spectrum must carry no DC component.
	if len(out) > 0 {
		floats.AddConst(-stat.Mean(out, nil), out)
	}
	return out
}

// detrend subtracts a centered moving average from the segment, removing
// slow illumination drift without attenuating the pulse band.
func (f *Filter) detrend(values []float64, fs float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	w := f.detrendWindow
	if w <= 0 {
		w = int(fs)
	}
	if w < 3 {
		w = 3
	}
	if w%2 == 0 {
		w++
	}
	half := w / 2

	// Prefix sums keep the sliding mean O(1) per sample.
	prefix := make([]float64, n+1)
	for i, v := range values {
		prefix[i+1] = prefix[i] + v
	}

	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}
		trend := (prefix[hi] - prefix[lo]) / float64(hi-lo)
		out[i] = values[i] - trend
	}
	return out
}

// Package aggregate smooths successive raw bpm estimates into mean/min/max
// statistics. Single-window spectral estimates are noisy frame-to-frame;
// reporting a smoothed mean with explicit min/max communicates estimate
// uncertainty instead of false precision.
package aggregate

import (
	"time"

	"github.com/pulseworks/rppg/internal/domain/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Default aggregator configuration constants.
const (
	defaultWindowSize = 10
	defaultMinCount   = 3
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWindowSize sets how many raw estimates the rolling window keeps.
func WithWindowSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.windowSize = n
		}
	}
}

// WithMinCount sets how many raw estimates are required before the
// aggregate is marked valid.
func WithMinCount(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.minCount = n
		}
	}
}

// Aggregator maintains a rolling window of raw bpm estimates, distinct
// from the signal window. It is not safe for concurrent use; the pipeline
// serializes access.
type Aggregator struct {
	windowSize int
	minCount   int
	bpms       []float64
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		windowSize: defaultWindowSize,
		minCount:   defaultMinCount,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.minCount > a.windowSize {
		a.minCount = a.windowSize
	}

	return a
}

// Count returns the number of raw estimates currently held.
func (a *Aggregator) Count() int {
	return len(a.bpms)
}

// Reset drops all held estimates, e.g. when tracking is lost and the
// statistics of the previous episode no longer apply.
func (a *Aggregator) Reset() {
	a.bpms = a.bpms[:0]
}

// Push adds one raw bpm estimate and returns the aggregate over the
// rolling window. The estimate is invalid until the window holds at least
// the configured minimum count; once valid, MinBpm <= MeanBpm <= MaxBpm.
func (a *Aggregator) Push(rawBpm float64, ts time.Time) model.Estimate {
	if len(a.bpms) >= a.windowSize {
		a.bpms = append(a.bpms[:0], a.bpms[1:]...)
	}
	a.bpms = append(a.bpms, rawBpm)

	est := model.Estimate{Time: ts}
	if len(a.bpms) < a.minCount {
		return est
	}

	est.MeanBpm = stat.Mean(a.bpms, nil)
	est.MinBpm = floats.Min(a.bpms)
	est.MaxBpm = floats.Max(a.bpms)
	est.Valid = true
	return est
}

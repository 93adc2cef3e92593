// Package signal provides the time-ordered, bounded-duration sample store
// feeding the filtering and spectral stages. Incoming samples arrive at
// irregular camera-driven intervals; the buffer resamples them onto a
// uniform grid so downstream Fourier analysis sees evenly spaced data.
package signal

import (
	"time"

	"github.com/pulseworks/rppg/internal/domain/model"
)

// Default buffer configuration constants.
const (
	defaultSampleRate = 30.0             // Hz, resampling grid
	defaultHorizon    = 10 * time.Second // must cover several periods of the lowest bpm
	defaultMaxGap     = 500 * time.Millisecond
)

// Window is a uniformly resampled signal segment.
type Window struct {
	// Start is the capture time of the first grid point.
	Start time.Time

	// Fs is the grid rate in Hz.
	Fs float64

	// Values holds one sample per grid point, spaced 1/Fs apart.
	Values []float64
}

// Duration returns the time span covered by the window.
func (w Window) Duration() time.Duration {
	if len(w.Values) < 2 || w.Fs <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Values)-1) / w.Fs * float64(time.Second))
}

// Buffer stores raw scalar samples and discontinuity markers. It is not
// safe for concurrent use; the pipeline serializes access.
type Buffer struct {
	fs      float64
	horizon time.Duration
	maxGap  time.Duration

	samples []model.Sample
	markers []time.Time
}

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithSampleRate sets the uniform grid rate in Hz.
func WithSampleRate(fs float64) Option {
	return func(b *Buffer) {
		if fs > 0 {
			b.fs = fs
		}
	}
}

// WithHorizon sets how much history is retained. Samples older than the
// horizon relative to the newest sample are evicted.
func WithHorizon(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.horizon = d
		}
	}
}

// WithMaxGap sets the largest inter-sample gap interpolation may bridge.
// A larger gap inserts a discontinuity marker instead.
func WithMaxGap(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.maxGap = d
		}
	}
}

// NewBuffer creates a Buffer with configuration options.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		fs:      defaultSampleRate,
		horizon: defaultHorizon,
		maxGap:  defaultMaxGap,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// SampleRate returns the grid rate in Hz.
func (b *Buffer) SampleRate() float64 {
	return b.fs
}

// Len returns the number of raw samples held.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Append adds a raw sample. Samples must arrive in time order: a sample at
// the same timestamp as the newest overwrites it, an older one is dropped.
// A gap larger than the configured maximum inserts a discontinuity marker
// so filtering never bridges it.
func (b *Buffer) Append(s model.Sample) {
	if n := len(b.samples); n > 0 {
		last := b.samples[n-1]
		if s.Time.Equal(last.Time) {
			b.samples[n-1].Value = s.Value
			return
		}
		if s.Time.Before(last.Time) {
			return
		}
		if gap := s.Time.Sub(last.Time); gap > b.maxGap {
			b.MarkDiscontinuity(s.Time)
		}
	}

	b.samples = append(b.samples, s)
	b.evict(s.Time)
}

// MarkDiscontinuity records a forced signal reset at ts. Estimation only
// uses samples after the newest marker.
func (b *Buffer) MarkDiscontinuity(ts time.Time) {
	if n := len(b.markers); n > 0 && !ts.After(b.markers[n-1]) {
		return
	}
	b.markers = append(b.markers, ts)
}

// Markers returns the marker timestamps currently retained.
func (b *Buffer) Markers() []time.Time {
	out := make([]time.Time, len(b.markers))
	copy(out, b.markers)
	return out
}

// Reset drops all samples and markers.
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
	b.markers = b.markers[:0]
}

// evict drops samples and markers older than the horizon behind now.
func (b *Buffer) evict(now time.Time) {
	cutoff := now.Add(-b.horizon)

	i := 0
	for i < len(b.samples) && b.samples[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}

	j := 0
	for j < len(b.markers) && b.markers[j].Before(cutoff) {
		j++
	}
	if j > 0 {
		b.markers = append(b.markers[:0], b.markers[j:]...)
	}
}

// Window resamples the most recent contiguous segment onto the uniform
// grid, spanning at most d. The segment starts at the newest discontinuity
// marker or the window limit, whichever is later. An empty Window is
// returned when fewer than two raw samples are available.
func (b *Buffer) Window(d time.Duration) Window {
	n := len(b.samples)
	if n < 2 {
		return Window{Fs: b.fs}
	}

	last := b.samples[n-1].Time
	segStart := b.samples[0].Time
	if limit := last.Add(-d); limit.After(segStart) {
		segStart = limit
	}
	if m := len(b.markers); m > 0 && b.markers[m-1].After(segStart) {
		segStart = b.markers[m-1]
	}

	// First raw sample at or after the segment start.
	first := 0
	for first < n && b.samples[first].Time.Before(segStart) {
		first++
	}
	if n-first < 2 {
		return Window{Fs: b.fs}
	}
	seg := b.samples[first:]

	start := seg[0].Time
	span := seg[len(seg)-1].Time.Sub(start).Seconds()
	points := int(span*b.fs+1e-9) + 1
	values := make([]float64, points)

	// Linear interpolation between the two nearest raw samples, walking
	// the raw series once.
	j := 0
	for i := 0; i < points; i++ {
		t := float64(i) / b.fs
		for j+1 < len(seg)-1 && seg[j+1].Time.Sub(start).Seconds() <= t {
			j++
		}
		t0 := seg[j].Time.Sub(start).Seconds()
		t1 := seg[j+1].Time.Sub(start).Seconds()
		if t1 == t0 {
			values[i] = seg[j].Value
			continue
		}
		frac := (t - t0) / (t1 - t0)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		values[i] = seg[j].Value + frac*(seg[j+1].Value-seg[j].Value)
	}

	return Window{Start: start, Fs: b.fs, Values: values}
}

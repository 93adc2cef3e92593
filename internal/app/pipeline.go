// Package pipeline orchestrates the per-frame heart-rate estimation
// stages: detection, tracking, region-of-interest extraction, signal
// buffering, filtering, spectral estimation and aggregation.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulseworks/rppg/internal/adapters/detect"
	"github.com/pulseworks/rppg/internal/domain/aggregate"
	"github.com/pulseworks/rppg/internal/domain/filter"
	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/internal/domain/roi"
	"github.com/pulseworks/rppg/internal/domain/signal"
	"github.com/pulseworks/rppg/internal/domain/spectral"
	"github.com/pulseworks/rppg/internal/domain/track"
	"github.com/pulseworks/rppg/pkg/logger"
	"github.com/pulseworks/rppg/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultWidth              = 640
	defaultHeight             = 480
	defaultSampleRate         = 30.0
	defaultEstimationInterval = time.Second
	defaultWindowDuration     = 8 * time.Second
	defaultMinWindow          = 3 * time.Second
)

// Observer receives every valid aggregated heart-rate estimate. Observers
// are called synchronously on the processing goroutine and must return
// quickly.
type Observer interface {
	OnHeartRate(ctx context.Context, est model.Estimate)
}

// Pipeline runs the full estimation chain for a single video stream.
// ProcessFrame is not reentrant; exactly one goroutine must drive it.
// Stats and Close may be called concurrently from other goroutines.
type Pipeline struct {
	mu sync.RWMutex

	// Configuration
	width          int
	height         int
	channel        model.Channel
	sampleRate     float64
	horizon        time.Duration
	maxGap         time.Duration
	rescanInterval time.Duration
	maxMisses      int
	filterMode     filter.Mode
	detrendWindow  int
	minBpm         float64
	maxBpm         float64
	aggWindow      int
	aggMinCount    int

	estimationInterval time.Duration
	windowDuration     time.Duration
	minWindow          time.Duration

	// Detection
	faceDet detect.Detector
	eyeDet  detect.Detector

	// Stages
	tracker   *track.Tracker
	locator   *track.Locator
	extractor *roi.Extractor
	buffer    *signal.Buffer
	filter    *filter.Filter
	estimator *spectral.Estimator
	agg       *aggregate.Aggregator

	// Per-track state
	mask   roi.Mask
	maskOK bool

	lastEstimate time.Time

	// Counters for the stats surface
	framesProcessed  int64
	estimatesEmitted int64

	observers []Observer

	closed bool
	logger logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithFrameSize sets the expected frame dimensions.
func WithFrameSize(width, height int) Option {
	return func(p *Pipeline) {
		if width > 0 && height > 0 {
			p.width = width
			p.height = height
		}
	}
}

// WithEyeDetector sets the eye detector. Without one the mask falls back
// to the full face rectangle.
func WithEyeDetector(d detect.Detector) Option {
	return func(p *Pipeline) {
		p.eyeDet = d
	}
}

// WithObserver registers an estimate observer. May be repeated.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithChannel sets the color channel sampled from the region of interest.
func WithChannel(c model.Channel) Option {
	return func(p *Pipeline) {
		p.channel = c
	}
}

// WithSampleRate sets the uniform resampling grid rate in Hz.
func WithSampleRate(fs float64) Option {
	return func(p *Pipeline) {
		if fs > 0 {
			p.sampleRate = fs
		}
	}
}

// WithHorizon sets how much signal history the buffer retains.
func WithHorizon(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.horizon = d
		}
	}
}

// WithMaxGap sets the largest inter-sample gap interpolation may bridge.
func WithMaxGap(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.maxGap = d
		}
	}
}

// WithRescanInterval sets how often a full-frame rescan is forced.
func WithRescanInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.rescanInterval = d
		}
	}
}

// WithMaxMisses sets how many consecutive empty detections are tolerated
// before the track is declared lost.
func WithMaxMisses(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxMisses = n
		}
	}
}

// WithFilterMode selects the denoising pipeline.
func WithFilterMode(m filter.Mode) Option {
	return func(p *Pipeline) {
		p.filterMode = m
	}
}

// WithDetrendWindow sets the moving-average window length in samples.
func WithDetrendWindow(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.detrendWindow = n
		}
	}
}

// WithBpmRange sets the plausible heart-rate band. It bounds both the
// spectral peak search and the band-pass filter.
func WithBpmRange(minBpm, maxBpm float64) Option {
	return func(p *Pipeline) {
		if minBpm > 0 && maxBpm > minBpm {
			p.minBpm = minBpm
			p.maxBpm = maxBpm
		}
	}
}

// WithAggregatorWindow sets how many raw estimates the rolling aggregate
// window keeps.
func WithAggregatorWindow(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.aggWindow = n
		}
	}
}

// WithAggregatorMinCount sets how many raw estimates are required before
// aggregates are marked valid.
func WithAggregatorMinCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.aggMinCount = n
		}
	}
}

// WithEstimationInterval sets how often an estimate is attempted. The
// cadence is driven by frame timestamps, not wall clock.
func WithEstimationInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.estimationInterval = d
		}
	}
}

// WithWindowDuration sets the signal window length handed to estimation.
func WithWindowDuration(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.windowDuration = d
		}
	}
}

// WithMinWindow sets the shortest window duration estimation accepts.
func WithMinWindow(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.minWindow = d
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New constructs a Pipeline around the given face detector.
func New(faceDet detect.Detector, opts ...Option) (*Pipeline, error) {
	if faceDet == nil {
		return nil, ErrNilDetector
	}

	p := &Pipeline{
		width:              defaultWidth,
		height:             defaultHeight,
		channel:            model.ChannelGreen,
		sampleRate:         defaultSampleRate,
		filterMode:         filter.ModeBandpass,
		estimationInterval: defaultEstimationInterval,
		windowDuration:     defaultWindowDuration,
		minWindow:          defaultMinWindow,
		faceDet:            faceDet,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Named("pipeline")
	}

	bounds := model.Rect{W: p.width, H: p.height}

	var trackOpts []track.Option
	if p.rescanInterval > 0 {
		trackOpts = append(trackOpts, track.WithRescanInterval(p.rescanInterval))
	}
	if p.maxMisses > 0 {
		trackOpts = append(trackOpts, track.WithMaxMisses(p.maxMisses))
	}
	p.tracker = track.New(bounds, trackOpts...)
	p.locator = track.NewLocator()
	p.extractor = roi.NewExtractor(p.channel)

	var bufOpts []signal.Option
	bufOpts = append(bufOpts, signal.WithSampleRate(p.sampleRate))
	if p.horizon > 0 {
		bufOpts = append(bufOpts, signal.WithHorizon(p.horizon))
	}
	if p.maxGap > 0 {
		bufOpts = append(bufOpts, signal.WithMaxGap(p.maxGap))
	}
	p.buffer = signal.NewBuffer(bufOpts...)

	filterOpts := []filter.Option{filter.WithMode(p.filterMode)}
	if p.detrendWindow > 0 {
		filterOpts = append(filterOpts, filter.WithDetrendWindow(p.detrendWindow))
	}
	if p.minBpm > 0 {
		filterOpts = append(filterOpts, filter.WithBand(p.minBpm/60, p.maxBpm/60))
	}
	p.filter = filter.New(filterOpts...)

	var specOpts []spectral.Option
	if p.minBpm > 0 {
		specOpts = append(specOpts, spectral.WithBpmRange(p.minBpm, p.maxBpm))
	}
	p.estimator = spectral.New(specOpts...)

	var aggOpts []aggregate.Option
	if p.aggWindow > 0 {
		aggOpts = append(aggOpts, aggregate.WithWindowSize(p.aggWindow))
	}
	if p.aggMinCount > 0 {
		aggOpts = append(aggOpts, aggregate.WithMinCount(p.aggMinCount))
	}
	p.agg = aggregate.New(aggOpts...)

	return p, nil
}

// ProcessFrame runs one frame through the full chain. Frames must be
// presented in capture order.
func (p *Pipeline) ProcessFrame(ctx context.Context, f *model.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if f == nil {
		return ErrNilFrame
	}
	if f.Width != p.width || f.Height != p.height {
		return ErrFrameSize
	}

	start := time.Now()
	now := f.Timestamp

	rescan := p.tracker.RescanDue(now)
	if rescan && p.tracker.State() == track.StateTracking {
		metrics.RecordRescan()
	}
	searchRegion := p.tracker.SearchRegion(now)

	candidates := p.faceDet.Detect(f, searchRegion)
	if len(candidates) > 0 {
		metrics.RecordDetectionHit()
	} else {
		metrics.RecordDetectionMiss()
	}

	res := p.tracker.Update(candidates, now, rescan)
	metrics.UpdateTrackingState(int(res.State))

	if res.Lost {
		p.onTrackLost(ctx, now)
	}

	if res.State == track.StateTracking {
		if res.Changed || !p.maskOK {
			p.rebuildMask(f, res.Region.Box)
		}
		if value, ok := p.extractor.Extract(f, p.mask); ok {
			p.buffer.Append(model.Sample{Time: now, Value: value})
			metrics.RecordSampleAppended()
		} else {
			metrics.RecordSampleSkipped()
		}
	} else {
		metrics.RecordSampleSkipped()
	}
	metrics.UpdateBufferLength(p.buffer.Len())

	if now.Sub(p.lastEstimate) >= p.estimationInterval {
		p.lastEstimate = now
		p.estimate(ctx, now)
	}

	p.framesProcessed++
	metrics.RecordFrameProcessed()
	metrics.RecordStageLatency("process_frame", float64(time.Since(start).Milliseconds()))
	return nil
}

// onTrackLost resets signal state so the next track episode starts clean.
func (p *Pipeline) onTrackLost(ctx context.Context, now time.Time) {
	p.buffer.MarkDiscontinuity(now)
	p.agg.Reset()
	p.mask = roi.Mask{}
	p.maskOK = false
	metrics.RecordTrackLost()
	metrics.RecordDiscontinuity()
	p.logger.Warn(ctx, "face track lost",
		logger.Time("at", now),
	)
}

// rebuildMask recomputes the eye boxes and region-of-interest mask after
// the tracked box moved.
func (p *Pipeline) rebuildMask(f *model.Frame, face model.Rect) {
	eyes := track.Eyes{}
	if p.eyeDet != nil {
		region := p.locator.SearchRegion(face)
		eyes = p.locator.Locate(face, p.eyeDet.Detect(f, region))
	}

	if eyes.Valid {
		p.mask = roi.Build(face, eyes.Left, eyes.Right)
	} else {
		p.mask = roi.Build(face)
	}
	p.maskOK = true
}

// estimate runs filtering, spectral peak selection and aggregation over
// the current signal window, notifying observers on a valid aggregate.
func (p *Pipeline) estimate(ctx context.Context, now time.Time) {
	start := time.Now()

	win := p.buffer.Window(p.windowDuration)
	if win.Duration() < p.minWindow {
		metrics.RecordEstimateSkipped("short_segment")
		return
	}

	filtered := p.filter.Apply(win.Values, win.Fs)
	raw, _, ok := p.estimator.Estimate(filtered, win.Fs)
	metrics.RecordEstimationLatency(float64(time.Since(start).Milliseconds()))

	if !ok {
		metrics.RecordEstimateSkipped("no_peak")
		p.logger.Debug(ctx, "no spectral peak in band",
			logger.Int("window", len(win.Values)),
		)
		return
	}
	metrics.UpdateRawBpm(raw.Bpm)

	est := p.agg.Push(raw.Bpm, now)
	est.ID = uuid.NewString()
	est.TrackID = p.tracker.Region().TrackID
	if !est.Valid {
		metrics.RecordEstimateSkipped("warming_up")
		return
	}

	p.estimatesEmitted++
	metrics.UpdateMeanBpm(est.MeanBpm)
	metrics.RecordEstimateEmitted()
	p.logger.Info(ctx, "heart rate estimate",
		logger.Float64("meanBpm", est.MeanBpm),
		logger.Float64("rawBpm", raw.Bpm),
		logger.String("trackID", est.TrackID),
	)

	for _, o := range p.observers {
		o.OnHeartRate(ctx, est)
	}
}

// Stats returns pipeline statistics for monitoring.
func (p *Pipeline) Stats() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]any{
		"state":             p.tracker.State().String(),
		"track_id":          p.tracker.Region().TrackID,
		"frames_processed":  p.framesProcessed,
		"buffer_samples":    p.buffer.Len(),
		"aggregator_count":  p.agg.Count(),
		"estimates_emitted": p.estimatesEmitted,
	}
}

// Close releases the detectors and drops all signal state. It is
// idempotent; ProcessFrame fails with ErrClosed afterwards.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.buffer.Reset()
	p.agg.Reset()

	err := p.faceDet.Close()
	if p.eyeDet != nil {
		err = errors.Join(err, p.eyeDet.Close())
	}
	return err
}

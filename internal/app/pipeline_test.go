package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pulseworks/rppg/internal/adapters/detect"
	"github.com/pulseworks/rppg/internal/adapters/source"
	pipeline "github.com/pulseworks/rppg/internal/app"
	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type collectingObserver struct {
	mu        sync.Mutex
	estimates []model.Estimate
}

func (o *collectingObserver) OnHeartRate(ctx context.Context, est model.Estimate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.estimates = append(o.estimates, est)
}

func (o *collectingObserver) all() []model.Estimate {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.Estimate, len(o.estimates))
	copy(out, o.estimates)
	return out
}

// feed pushes frames at the given rate through the pipeline, driven by
// synthetic timestamps rather than wall clock.
func feed(t *testing.T, p *pipeline.Pipeline, src *source.Synthetic, fps int, d time.Duration) {
	t.Helper()
	ctx := context.Background()
	base := time.Unix(0, 0)
	frames := int(d.Seconds() * float64(fps))
	for i := 0; i < frames; i++ {
		elapsed := time.Duration(i) * time.Second / time.Duration(fps)
		f := src.Frame(elapsed, base.Add(elapsed))
		if err := p.ProcessFrame(ctx, f); err != nil {
			t.Fatalf("process frame %d: %v", i, err)
		}
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	Convey("Given a pipeline over a 72 bpm synthetic source", t, func() {
		src := source.New(96, 72,
			source.WithBpm(72),
			source.WithNoise(0.3),
			source.WithDrift(0.5),
		)
		obs := &collectingObserver{}
		p, err := pipeline.New(src.FaceDetector(),
			pipeline.WithFrameSize(96, 72),
			pipeline.WithEyeDetector(src.EyeDetector()),
			pipeline.WithObserver(obs),
			pipeline.WithSampleRate(30),
			pipeline.WithHorizon(12*time.Second),
			pipeline.WithWindowDuration(10*time.Second),
			pipeline.WithMinWindow(3*time.Second),
		)
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("When 30 seconds of frames are processed at 30 fps", func() {
			feed(t, p, src, 30, 30*time.Second)

			Convey("Then valid estimates near 72 bpm are emitted", func() {
				estimates := obs.all()
				So(len(estimates), ShouldBeGreaterThan, 5)

				last := estimates[len(estimates)-1]
				So(last.Valid, ShouldBeTrue)
				So(last.TrackID, ShouldNotBeEmpty)
				So(last.ID, ShouldNotBeEmpty)
				So(last.MeanBpm, ShouldBeBetween, 72*0.95, 72*1.05)
				So(last.MinBpm, ShouldBeLessThanOrEqualTo, last.MeanBpm)
				So(last.MaxBpm, ShouldBeGreaterThanOrEqualTo, last.MeanBpm)
			})

			Convey("Then the stats surface reflects a live track", func() {
				stats := p.Stats()
				So(stats["state"], ShouldEqual, "tracking")
				So(stats["track_id"], ShouldNotBeEmpty)
				So(stats["frames_processed"], ShouldEqual, int64(900))
				So(stats["buffer_samples"], ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestPipelineNoFace(t *testing.T) {
	Convey("Given a pipeline whose detector never finds a face", t, func() {
		src := source.New(64, 48)
		obs := &collectingObserver{}
		never := detect.Func(func(*model.Frame, model.Rect) []model.Rect { return nil })
		p, err := pipeline.New(never,
			pipeline.WithFrameSize(64, 48),
			pipeline.WithObserver(obs),
		)
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("When frames are processed", func() {
			feed(t, p, src, 30, 5*time.Second)

			Convey("Then no samples accumulate and no estimates are emitted", func() {
				So(obs.all(), ShouldBeEmpty)
				stats := p.Stats()
				So(stats["state"], ShouldEqual, "searching")
				So(stats["buffer_samples"], ShouldEqual, 0)
			})
		})
	})
}

func TestPipelineTrackLoss(t *testing.T) {
	Convey("Given a pipeline whose face disappears mid-stream", t, func() {
		src := source.New(64, 48, source.WithBpm(80))
		inner := src.FaceDetector()

		var gone bool
		flaky := detect.Func(func(f *model.Frame, region model.Rect) []model.Rect {
			if gone {
				return nil
			}
			return inner.Detect(f, region)
		})

		p, err := pipeline.New(flaky,
			pipeline.WithFrameSize(64, 48),
			pipeline.WithMaxMisses(5),
		)
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("When the face vanishes after steady tracking", func() {
			feed(t, p, src, 30, 3*time.Second)
			So(p.Stats()["state"], ShouldEqual, "tracking")
			firstTrack := p.Stats()["track_id"]

			gone = true
			ctx := context.Background()
			base := time.Unix(0, 0).Add(3 * time.Second)
			for i := 0; i < 10; i++ {
				elapsed := time.Duration(i) * time.Second / 30
				f := src.Frame(3*time.Second+elapsed, base.Add(elapsed))
				So(p.ProcessFrame(ctx, f), ShouldBeNil)
			}

			Convey("Then the track is lost and aggregate state reset", func() {
				stats := p.Stats()
				So(stats["state"], ShouldEqual, "lost")
				So(stats["aggregator_count"], ShouldEqual, 0)
			})

			Convey("And a returning face starts a fresh track episode", func() {
				gone = false
				base = base.Add(time.Second)
				for i := 0; i < 10; i++ {
					elapsed := time.Duration(i) * time.Second / 30
					f := src.Frame(4*time.Second+elapsed, base.Add(elapsed))
					So(p.ProcessFrame(ctx, f), ShouldBeNil)
				}
				stats := p.Stats()
				So(stats["state"], ShouldEqual, "tracking")
				So(stats["track_id"], ShouldNotEqual, firstTrack)
			})
		})
	})
}

func TestPipelineConstantSignal(t *testing.T) {
	Convey("Given a pipeline over a source with no pulse", t, func() {
		src := source.New(64, 48, source.WithAmplitude(0.01))
		obs := &collectingObserver{}
		p, err := pipeline.New(src.FaceDetector(),
			pipeline.WithFrameSize(64, 48),
			pipeline.WithObserver(obs),
		)
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("When frames are processed", func() {
			feed(t, p, src, 30, 12*time.Second)

			Convey("Then no estimate is ever emitted", func() {
				So(obs.all(), ShouldBeEmpty)
			})
		})
	})
}

func TestPipelineLifecycle(t *testing.T) {
	Convey("Given a pipeline", t, func() {
		src := source.New(64, 48)
		p, err := pipeline.New(src.FaceDetector(), pipeline.WithFrameSize(64, 48))
		So(err, ShouldBeNil)

		Convey("When constructed without a face detector", func() {
			_, err := pipeline.New(nil)

			Convey("Then it refuses", func() {
				So(err, ShouldEqual, pipeline.ErrNilDetector)
			})
		})

		Convey("When a frame of the wrong size is presented", func() {
			f := src.Frame(0, time.Unix(0, 0))
			f.Width = 10

			Convey("Then it is rejected", func() {
				So(p.ProcessFrame(context.Background(), f), ShouldEqual, pipeline.ErrFrameSize)
			})
		})

		Convey("When the pipeline is closed", func() {
			So(p.Close(), ShouldBeNil)

			Convey("Then close is idempotent and processing refuses", func() {
				So(p.Close(), ShouldBeNil)
				f := src.Frame(0, time.Unix(0, 0))
				So(p.ProcessFrame(context.Background(), f), ShouldEqual, pipeline.ErrClosed)
			})
		})
	})
}

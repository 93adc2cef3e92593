package spectral_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pulseworks/rppg/internal/domain/spectral"
	. "github.com/smartystreets/goconvey/convey"
)

const fs = 30.0

func sine(n int, hz, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*hz*float64(i)/fs)
	}
	return out
}

func TestEstimatorPeak(t *testing.T) {
	Convey("Given an estimator over 42-240 bpm", t, func() {
		e := spectral.New()

		Convey("When analyzing a clean 1.2 Hz sine", func() {
			est, spec, ok := e.Estimate(sine(900, 1.2, 1.0), fs)

			Convey("Then the raw bpm lands within 5% of 72", func() {
				So(ok, ShouldBeTrue)
				So(est.Bpm, ShouldAlmostEqual, 72, 72*0.05)
				So(est.Freq, ShouldAlmostEqual, 1.2, 0.06)
			})

			Convey("Then the spectrum only covers the configured band", func() {
				So(spec.Freqs, ShouldNotBeEmpty)
				So(spec.Freqs[0], ShouldBeGreaterThanOrEqualTo, 0.7)
				So(spec.Freqs[len(spec.Freqs)-1], ShouldBeLessThanOrEqualTo, 4.0)
			})
		})

		Convey("When the signal contains a sub-band and an in-band tone", func() {
			vals := sine(900, 1.2, 0.5)
			low := sine(900, 0.2, 5.0) // strong drift tone below the band
			for i := range vals {
				vals[i] += low[i]
			}
			est, _, ok := e.Estimate(vals, fs)

			Convey("Then the out-of-band tone is excluded entirely", func() {
				So(ok, ShouldBeTrue)
				So(est.Bpm, ShouldAlmostEqual, 72, 72*0.05)
			})
		})

		Convey("When noise rides on the pulse", func() {
			rng := rand.New(rand.NewSource(11))
			vals := sine(900, 1.5, 1.0)
			for i := range vals {
				vals[i] += 0.3 * rng.NormFloat64()
			}
			est, _, ok := e.Estimate(vals, fs)

			Convey("Then the peak still lands near 90 bpm", func() {
				So(ok, ShouldBeTrue)
				So(est.Bpm, ShouldAlmostEqual, 90, 90*0.05)
			})
		})

		Convey("Then no estimate ever leaves the configured band", func() {
			rng := rand.New(rand.NewSource(3))
			for trial := 0; trial < 20; trial++ {
				vals := make([]float64, 300)
				for i := range vals {
					vals[i] = rng.NormFloat64()
				}
				if est, _, ok := e.Estimate(vals, fs); ok {
					So(est.Bpm, ShouldBeBetweenOrEqual, 42, 240)
				}
			}
		})
	})
}

func TestEstimatorValidity(t *testing.T) {
	Convey("Given an estimator", t, func() {
		e := spectral.New()

		Convey("When the segment is all zero", func() {
			_, _, ok := e.Estimate(make([]float64, 512), fs)

			Convey("Then no in-band peak rises above the noise floor", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the segment is too short", func() {
			_, _, ok := e.Estimate([]float64{1, 2, 3}, fs)
			So(ok, ShouldBeFalse)
		})

		Convey("When the sample rate is invalid", func() {
			_, _, ok := e.Estimate(sine(256, 1.2, 1.0), 0)
			So(ok, ShouldBeFalse)
		})

		Convey("When flat wideband noise has no dominant peak", func() {
			e := spectral.New(spectral.WithMinSNR(50))
			rng := rand.New(rand.NewSource(5))
			vals := make([]float64, 600)
			for i := range vals {
				vals[i] = rng.NormFloat64()
			}
			_, _, ok := e.Estimate(vals, fs)

			Convey("Then the SNR gate rejects it", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a narrowed bpm range", t, func() {
		e := spectral.New(spectral.WithBpmRange(60, 100))

		Convey("When a strong tone sits outside the narrowed band", func() {
			est, _, ok := e.Estimate(sine(900, 2.0, 1.0), fs) // 120 bpm

			Convey("Then it is not eligible as a peak", func() {
				if ok {
					So(est.Bpm, ShouldBeBetweenOrEqual, 60, 100)
				}
				minBpm, maxBpm := e.BpmRange()
				So(minBpm, ShouldEqual, 60)
				So(maxBpm, ShouldEqual, 100)
			})
		})
	})
}

package filter_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pulseworks/rppg/internal/domain/filter"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

const fs = 30.0

// pulseSignal builds sine(hz) + linear drift + deterministic noise.
func pulseSignal(n int, hz, drift, noise float64) []float64 {
	rng := rand.New(rand.NewSource(7))
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / fs
		out[i] = math.Sin(2*math.Pi*hz*t) + drift*t + noise*rng.NormFloat64()
	}
	return out
}

// bandPower sums spectral power of seq inside [lowHz, highHz).
func bandPower(seq []float64, lowHz, highHz float64) float64 {
	n := len(seq)
	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, seq)
	var sum float64
	for i, c := range coeff {
		freq := fft.Freq(i) * fs
		if freq >= lowHz && freq < highHz {
			sum += real(c)*real(c) + imag(c)*imag(c)
		}
	}
	return sum
}

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		Convey("Then known names should parse", func() {
			m, err := filter.ParseMode("detrend")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, filter.ModeDetrend)

			m, err = filter.ParseMode("")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, filter.ModeBandpass)
		})

		Convey("Then unknown names should fail", func() {
			_, err := filter.ParseMode("lowpass")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDetrendMeanCenter(t *testing.T) {
	Convey("Given the detrend+mean-center pipeline", t, func() {
		f := filter.New(filter.WithMode(filter.ModeDetrend))

		Convey("When filtering a drifting pulse signal", func() {
			in := pulseSignal(300, 1.2, 3.0, 0.1)
			out := f.Apply(in, fs)

			Convey("Then the output has zero mean", func() {
				So(len(out), ShouldEqual, len(in))
				So(stat.Mean(out, nil), ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("Then the pulse band survives detrending", func() {
				So(bandPower(out, 1.0, 1.4), ShouldBeGreaterThan, 0.1*bandPower(in, 1.0, 1.4))
			})

			Convey("Then the input is left untouched", func() {
				So(in[10], ShouldNotAlmostEqual, out[10])
			})
		})

		Convey("When filtering a pure DC signal", func() {
			in := make([]float64, 128)
			for i := range in {
				in[i] = 42
			}
			out := f.Apply(in, fs)

			Convey("Then the output is all zero", func() {
				for _, v := range out {
					So(v, ShouldAlmostEqual, 0, 1e-9)
				}
			})
		})

		Convey("When filtering arbitrary noise", func() {
			in := pulseSignal(200, 0.3, -2.0, 1.5)
			out := f.Apply(in, fs)

			Convey("Then the output mean is still zero", func() {
				So(stat.Mean(out, nil), ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When filtering an empty segment", func() {
			So(f.Apply(nil, fs), ShouldBeEmpty)
		})
	})
}

func TestBandpass(t *testing.T) {
	Convey("Given the detrend+band-pass pipeline over 0.7-4.0 Hz", t, func() {
		f := filter.New(filter.WithMode(filter.ModeBandpass))

		Convey("When filtering a signal with strong out-of-band content", func() {
			in := pulseSignal(512, 1.2, 5.0, 0.0)
			// Add 6 Hz interference well above the band.
			for i := range in {
				in[i] += 2 * math.Sin(2*math.Pi*6.0*float64(i)/fs)
			}
			out := f.Apply(in, fs)

			Convey("Then out-of-band power is negligible", func() {
				inBand := bandPower(out, 0.7, 4.0)
				outBand := bandPower(out, 4.5, 15.0) + bandPower(out, 0.0, 0.5)
				So(inBand, ShouldBeGreaterThan, 1)
				So(outBand, ShouldBeLessThan, inBand*1e-6)
			})

			Convey("Then the output has zero mean", func() {
				So(stat.Mean(out, nil), ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("Then the 1.2 Hz pulse dominates the result", func() {
				So(bandPower(out, 1.1, 1.3), ShouldBeGreaterThan, bandPower(out, 1.5, 4.0))
			})
		})

		Convey("When the band is customized", func() {
			g := filter.New(filter.WithBand(1.0, 2.0))
			lo, hi := g.Band()
			So(lo, ShouldEqual, 1.0)
			So(hi, ShouldEqual, 2.0)

			in := pulseSignal(512, 3.0, 0, 0)
			out := g.Apply(in, fs)

			Convey("Then content outside the custom band is removed", func() {
				So(bandPower(out, 2.8, 3.2), ShouldBeLessThan, 1e-6)
			})
		})

		Convey("When the segment is too short for an FFT", func() {
			out := f.Apply([]float64{1, 2, 3}, fs)

			Convey("Then it degrades to detrend+mean-center", func() {
				So(len(out), ShouldEqual, 3)
				So(stat.Mean(out, nil), ShouldAlmostEqual, 0, 1e-9)
			})
		})
	})
}

package filter

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// bandpass suppresses every frequency component outside [lowHz, highHz] by
// masking the real FFT coefficients and transforming back. Masking rather
// than down-weighting guarantees negligible out-of-band power in the
// result, which the spectral stage relies on.
func bandpass(values []float64, fs, lowHz, highHz float64) []float64 {
	n := len(values)
	if n < 4 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, values)

	for i := range coeff {
		freq := fft.Freq(i) * fs
		if freq < lowHz || freq > highHz {
			coeff[i] = 0
		}
	}

	out := fft.Sequence(nil, coeff)
	// Sequence(Coefficients(x)) scales by n.
	floats.Scale(1/float64(n), out)
	return out
}

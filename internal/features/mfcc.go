package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// hannWindow generates a periodic Hann window of the given length.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// dctBasis returns the first k rows of the orthonormal DCT-II matrix for
// inputs of length n.
func dctBasis(k, n int) [][]float64 {
	basis := make([][]float64, k)
	for i := range basis {
		scale := math.Sqrt(2 / float64(n))
		if i == 0 {
			scale = math.Sqrt(1 / float64(n))
		}
		row := make([]float64, n)
		for j := range row {
			row[j] = scale * math.Cos(math.Pi*float64(i)*(2*float64(j)+1)/(2*float64(n)))
		}
		basis[i] = row
	}
	return basis
}

// mfcc computes one coefficient vector per centred frame of signal.
func (e *Extractor) mfcc(signal []float64, rate int) Matrix {
	cfg := e.cfg
	nfft := cfg.FFTSize
	pad := nfft / 2
	numFrames := 1 + len(signal)/cfg.HopSize

	bank := melFilterBank(cfg.NumMels, nfft, rate, cfg.FMin, cfg.FMax)
	fft := fourier.NewFFT(nfft)

	frame := make([]float64, nfft)
	coeffs := make([]complex128, nfft/2+1)
	power := make([]float64, nfft/2+1)

	// Log-mel spectrogram first: the dynamic range clamp needs the global peak
	logMel := make([][]float64, numFrames)
	peak := math.Inf(-1)
	const amin = 1e-10

	for t := 0; t < numFrames; t++ {
		start := t*cfg.HopSize - pad
		for i := range frame {
			idx := start + i
			if idx < 0 || idx >= len(signal) {
				frame[i] = 0
				continue
			}
			frame[i] = signal[idx] * e.window[i]
		}

		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}

		mel := make([]float64, cfg.NumMels)
		for m, filter := range bank {
			mel[m] = 10 * math.Log10(math.Max(amin, floats.Dot(filter, power)))
		}
		if p := floats.Max(mel); p > peak {
			peak = p
		}
		logMel[t] = mel
	}

	floor := peak - cfg.TopDB
	out := make(Matrix, numFrames)
	for t, mel := range logMel {
		for m, v := range mel {
			if v < floor {
				mel[m] = floor
			}
		}
		row := make([]float64, cfg.NumCoefficients)
		for i, basis := range e.dct {
			row[i] = floats.Dot(basis, mel)
		}
		out[t] = row
	}
	return out
}

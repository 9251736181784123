package features

import "math"

// trimSilence cuts leading and trailing silence from signal in one pass.
//
// The signal is split into centred frames of frameLength samples every hop
// samples. A frame is silent when its mean-square level is more than topDB
// below the loudest frame. The result runs from the first non-silent frame
// to the end of the last one. A signal with no energy at all trims to
// nothing.
func trimSilence(signal []float64, topDB float64, frameLength, hop int) []float64 {
	if len(signal) == 0 {
		return nil
	}

	levels := frameMeanSquare(signal, frameLength, hop)
	peak := 0.0
	for _, l := range levels {
		if l > peak {
			peak = l
		}
	}
	if peak == 0 {
		return nil
	}

	const amin = 1e-10
	ref := 10 * math.Log10(math.Max(amin, peak))
	first, last := -1, -1
	for i, l := range levels {
		if 10*math.Log10(math.Max(amin, l))-ref > -topDB {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	start := first * hop
	end := (last + 1) * hop
	if end > len(signal) {
		end = len(signal)
	}
	if start >= end {
		return nil
	}
	return signal[start:end]
}

// frameMeanSquare returns the mean-square level of centred frames. The
// signal is zero padded by frameLength/2 on both sides, giving
// 1 + len(signal)/hop frames.
func frameMeanSquare(signal []float64, frameLength, hop int) []float64 {
	pad := frameLength / 2
	n := 1 + len(signal)/hop
	levels := make([]float64, n)
	for t := 0; t < n; t++ {
		start := t*hop - pad
		sum := 0.0
		for i := 0; i < frameLength; i++ {
			idx := start + i
			if idx < 0 || idx >= len(signal) {
				continue
			}
			sum += signal[idx] * signal[idx]
		}
		levels[t] = sum / float64(frameLength)
	}
	return levels
}

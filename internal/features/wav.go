package features

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// loadMono decodes a PCM WAV file into samples in [-1, 1), averaging all
// channels, and returns them with the file's sample rate.
func loadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open waveform: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a PCM WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode waveform: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 || depth < 8 || depth > 32 {
		return nil, 0, fmt.Errorf("unsupported layout: %d channels, %d bits", channels, depth)
	}

	// 8-bit WAV is unsigned, wider depths are signed
	scale := float64(int64(1) << (depth - 1))
	offset := 0.0
	if depth == 8 {
		offset = 128
	}
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = (float64(v) - offset) / scale
	}

	frames := len(samples) / channels
	return downmixInterleaved(samples, channels, frames), int(dec.SampleRate), nil
}

// downmixInterleaved averages interleaved channels into a new mono slice.
func downmixInterleaved(input []float64, channels, frames int) []float64 {
	out := make([]float64, frames)
	if channels == 1 {
		copy(out, input)
		return out
	}
	for f := 0; f < frames; f++ {
		sum := 0.0
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += input[base+c]
		}
		out[f] = sum / float64(channels)
	}
	return out
}

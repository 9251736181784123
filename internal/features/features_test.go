package features

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
)

func writeWAV(t *testing.T, path string, rate, channels int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// voiced returns a deterministic tone-plus-noise signal scaled to int16.
func voiced(n, rate int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int, n)
	for i := range out {
		x := 0.4*math.Sin(2*math.Pi*220*float64(i)/float64(rate)) +
			0.2*math.Sin(2*math.Pi*1330*float64(i)/float64(rate)) +
			0.05*rng.NormFloat64()
		out[i] = int(x * 32767)
	}
	return out
}

func TestExtractSilentClipIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeWAV(t, path, 8000, 1, make([]int, 5*8000))

	_, err := New(DefaultConfig(), zerolog.Nop()).Extract(path)
	if !errors.Is(err, apperrors.ErrEmptyClip) {
		t.Fatalf("expected EmptyClip, got %v", err)
	}
}

func TestExtractUnreadableAudio(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("definitely not RIFF data"), 0644); err != nil {
		t.Fatal(err)
	}

	ext := New(DefaultConfig(), zerolog.Nop())
	for _, path := range []string{garbage, filepath.Join(dir, "missing.wav")} {
		_, err := ext.Extract(path)
		if !errors.Is(err, apperrors.ErrUnreadableAudio) {
			t.Errorf("%s: expected UnreadableAudio, got %v", filepath.Base(path), err)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	writeWAV(t, path, 16000, 1, voiced(16000, 16000, 7))

	ext := New(DefaultConfig(), zerolog.Nop())
	first, err := ext.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := ext.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if first.Rows() != second.Rows() || first.Cols() != second.Cols() {
		t.Fatalf("shape changed between runs: %dx%d vs %dx%d", first.Rows(), first.Cols(), second.Rows(), second.Cols())
	}
	for i := range first {
		for j := range first[i] {
			if math.Float64bits(first[i][j]) != math.Float64bits(second[i][j]) {
				t.Fatalf("element [%d][%d] differs: %v vs %v", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestExtractShapeAndNormalization(t *testing.T) {
	const rate = 16000
	n := rate
	path := filepath.Join(t.TempDir(), "voice.wav")
	writeWAV(t, path, rate, 1, voiced(n, rate, 3))

	cfg := DefaultConfig()
	m, err := New(cfg, zerolog.Nop()).Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if want := 1 + n/cfg.HopSize; m.Rows() != want {
		t.Errorf("expected %d frames, got %d", want, m.Rows())
	}
	if m.Cols() != cfg.NumCoefficients {
		t.Fatalf("expected %d coefficients, got %d", cfg.NumCoefficients, m.Cols())
	}

	for j := 0; j < m.Cols(); j++ {
		col := m.Column(j)
		mean, variance := 0.0, 0.0
		for _, v := range col {
			mean += v
		}
		mean /= float64(len(col))
		for _, v := range col {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(col))

		if math.Abs(mean) > 1e-9 {
			t.Errorf("column %d: mean = %g, want ~0", j, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("column %d: variance = %g, want ~1", j, variance)
		}
	}
}

func TestExtractDownmixesStereo(t *testing.T) {
	const rate = 8000
	mono := voiced(rate, rate, 11)
	stereo := make([]int, 2*len(mono))
	for i, v := range mono {
		stereo[2*i] = v
		stereo[2*i+1] = v
	}

	dir := t.TempDir()
	monoPath := filepath.Join(dir, "mono.wav")
	stereoPath := filepath.Join(dir, "stereo.wav")
	writeWAV(t, monoPath, rate, 1, mono)
	writeWAV(t, stereoPath, rate, 2, stereo)

	ext := New(DefaultConfig(), zerolog.Nop())
	a, err := ext.Extract(monoPath)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ext.Extract(stereoPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.Rows() != b.Rows() {
		t.Fatalf("expected identical frame counts, got %d and %d", a.Rows(), b.Rows())
	}
	for i := range a {
		for j := range a[i] {
			if math.Abs(a[i][j]-b[i][j]) > 1e-9 {
				t.Fatalf("element [%d][%d]: mono %v, stereo %v", i, j, a[i][j], b[i][j])
			}
		}
	}
}

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float64{0.1, 0.2, 0.3, 0.4}
	got := downmixInterleaved(input, 1, len(input))

	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %f, got %f", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	frames := 4
	input := []float64{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	expected := []float64{
		0.5, 0.5, 0.5, 0.0,
	}

	got := downmixInterleaved(input, 2, frames)
	if len(got) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	frames := 2
	input := []float64{
		1, 3, 5,
		2, 4, 6,
	}

	expected := []float64{3, 4}

	got := downmixInterleaved(input, 3, frames)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

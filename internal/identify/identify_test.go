package identify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/features"
	"github.com/petems/voicevault/internal/speaker"
)

// Mock implementations for testing
type mockRecorder struct {
	err   error
	calls int
}

func (m *mockRecorder) Record(ctx context.Context, d time.Duration, path string) (audio.Clip, error) {
	m.calls++
	if m.err != nil {
		return audio.Clip{}, m.err
	}
	return audio.Clip{Path: path, Channels: 1, SampleWidth: 2, Rate: 8000, Frames: int(d.Seconds() * 8000)}, nil
}

type mockExtractor struct {
	matrix features.Matrix
	err    error
	calls  int
}

func (m *mockExtractor) Extract(path string) (features.Matrix, error) {
	m.calls++
	return m.matrix, m.err
}

// tableModel scores row r as scores[r], where r is the row's first value.
type tableModel struct {
	label  string
	scores []float64
	calls  *int
}

func (m *tableModel) Label() string  { return m.label }
func (m *tableModel) Dimension() int { return 1 }

func (m *tableModel) Score(x []float64) (float64, error) {
	if m.calls != nil {
		*m.calls++
	}
	return m.scores[int(x[0])], nil
}

type mockStatus struct {
	events []string
}

func (s *mockStatus) SetIdle()       { s.events = append(s.events, "idle") }
func (s *mockStatus) SetRecording()  { s.events = append(s.events, "recording") }
func (s *mockStatus) SetProcessing() { s.events = append(s.events, "processing") }
func (s *mockStatus) SetError()      { s.events = append(s.events, "error") }

func rows(n int) features.Matrix {
	m := make(features.Matrix, n)
	for i := range m {
		m[i] = []float64{float64(i)}
	}
	return m
}

// threeSpeakers builds models where alice wins rows 0-5, bob rows 6-7 and
// carol row 8.
func threeSpeakers(calls *int) *speaker.Set {
	alice := make([]float64, 9)
	bob := make([]float64, 9)
	carol := make([]float64, 9)
	for r := 0; r < 9; r++ {
		alice[r], bob[r], carol[r] = -5, -5, -5
		switch {
		case r < 6:
			alice[r] = -1
		case r < 8:
			bob[r] = -1
		default:
			carol[r] = -1
		}
	}
	return speaker.NewSet(
		&tableModel{label: "alice", scores: alice, calls: calls},
		&tableModel{label: "bob", scores: bob, calls: calls},
		&tableModel{label: "carol", scores: carol, calls: calls},
	)
}

func readHistory(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestIdentifyMajorityWins(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.txt")
	status := &mockStatus{}

	p := New(Config{
		Recorder:      &mockRecorder{},
		Extractor:     &mockExtractor{matrix: rows(9)},
		Models:        threeSpeakers(nil),
		HistoryPath:   historyPath,
		Logger:        zerolog.Nop(),
		StatusUpdater: status,
	})

	res, err := p.Identify(context.Background(), Request{Duration: 5 * time.Second, ClipPath: filepath.Join(dir, "clip.wav")})
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if res.Speaker != "alice" {
		t.Errorf("Speaker = %q, want alice", res.Speaker)
	}
	if a, b, c := res.Tally.Count("alice"), res.Tally.Count("bob"), res.Tally.Count("carol"); a != 6 || b+c != 3 {
		t.Errorf("tally = %v, want alice:6 and 3 others", res.Tally.Map())
	}
	if got := readHistory(t, historyPath); got != "alice\n\n" {
		t.Errorf("history = %q, want %q", got, "alice\n\n")
	}
	if got := strings.Join(status.events, ","); got != "recording,processing,idle" {
		t.Errorf("status events = %s", got)
	}
}

func TestIdentifySilentClipWritesNoHistory(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.txt")
	status := &mockStatus{}
	loader := &countingLoader{}

	params := audio.StreamParams{Format: audio.Int16, Channels: 1, Rate: 8000, FramesPerBuffer: 256, Input: true}
	rec := audio.NewRecorder(params, func() (audio.Host, error) { return silentHost{}, nil }, zerolog.Nop())

	p := New(Config{
		Recorder:      rec,
		Extractor:     features.New(features.DefaultConfig(), zerolog.Nop()),
		Loader:        loader,
		HistoryPath:   historyPath,
		Logger:        zerolog.Nop(),
		StatusUpdater: status,
	})

	_, err := p.Identify(context.Background(), Request{
		Duration:   5 * time.Second,
		ClipPath:   filepath.Join(dir, "clip.wav"),
		ModelPaths: []string{"alice.yaml"},
	})
	if !errors.Is(err, apperrors.ErrEmptyClip) {
		t.Fatalf("Identify error = %v, want EmptyClip", err)
	}
	if loader.calls != 0 {
		t.Errorf("models loaded %d times after an empty clip", loader.calls)
	}
	if got := readHistory(t, historyPath); got != "" {
		t.Errorf("history = %q, want nothing", got)
	}
	if last := status.events[len(status.events)-1]; last != "error" {
		t.Errorf("final status = %s, want error", last)
	}
}

func TestIdentifyMissingModelFailsBeforeScoring(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.txt")
	scored := 0

	p := New(Config{
		Recorder:    &mockRecorder{},
		Extractor:   &mockExtractor{matrix: rows(9)},
		Loader:      speaker.Loader{Logger: zerolog.Nop()},
		Models:      threeSpeakers(&scored),
		HistoryPath: historyPath,
		Logger:      zerolog.Nop(),
	})

	_, err := p.Identify(context.Background(), Request{
		Duration:   time.Second,
		ClipPath:   filepath.Join(dir, "clip.wav"),
		ModelPaths: []string{filepath.Join(dir, "nobody.yaml")},
	})
	if !errors.Is(err, apperrors.ErrModelLoad) {
		t.Fatalf("Identify error = %v, want ModelLoadError", err)
	}
	if scored != 0 {
		t.Errorf("%d scores computed before failing", scored)
	}
	if got := readHistory(t, historyPath); got != "" {
		t.Errorf("history = %q, want nothing", got)
	}
}

func TestIdentifyStopsAtFirstFailure(t *testing.T) {
	cause := apperrors.Newf(apperrors.KindDeviceUnavailable, "record", "", "no input device")
	ext := &mockExtractor{matrix: rows(1)}

	p := New(Config{
		Recorder:  &mockRecorder{err: cause},
		Extractor: ext,
		Models:    threeSpeakers(nil),
		Logger:    zerolog.Nop(),
	})

	_, err := p.Identify(context.Background(), Request{Duration: time.Second, ClipPath: "clip.wav"})
	if !errors.Is(err, apperrors.ErrDeviceUnavailable) {
		t.Fatalf("Identify error = %v, want DeviceUnavailable", err)
	}
	if err != error(cause) {
		t.Errorf("error was rewrapped: %v", err)
	}
	if ext.calls != 0 {
		t.Errorf("extractor called after capture failure")
	}
}

func TestIdentifyWithoutModels(t *testing.T) {
	p := New(Config{
		Recorder:  &mockRecorder{},
		Extractor: &mockExtractor{matrix: rows(1)},
		Logger:    zerolog.Nop(),
	})

	_, err := p.Identify(context.Background(), Request{Duration: time.Second, ClipPath: "clip.wav"})
	if !errors.Is(err, apperrors.ErrModelLoad) {
		t.Fatalf("Identify error = %v, want ModelLoadError", err)
	}
}

type countingLoader struct {
	calls int
}

func (l *countingLoader) Load(ctx context.Context, paths []string) (*speaker.Set, error) {
	l.calls++
	return nil, errors.New("unexpected load")
}

type silentHost struct{}

func (silentHost) OpenInput(p audio.StreamParams) (audio.InputStream, error) {
	return silentStream{n: p.FramesPerBuffer * p.Channels}, nil
}

func (silentHost) Close() error { return nil }

type silentStream struct{ n int }

func (s silentStream) Read() ([]int, error) { return make([]int, s.n), nil }
func (s silentStream) Close() error          { return nil }

// Package audio records fixed-duration microphone clips to WAV files.
package audio

import (
	"fmt"
	"time"
)

// SampleFormat is the PCM encoding of captured samples.
type SampleFormat string

const (
	Int16 SampleFormat = "int16"
	Int32 SampleFormat = "int32"
)

// Width returns the size of one sample in bytes, or 0 if the format is unsupported.
func (f SampleFormat) Width() int {
	switch f {
	case Int16:
		return 2
	case Int32:
		return 4
	}
	return 0
}

// BitDepth returns the number of bits per sample.
func (f SampleFormat) BitDepth() int {
	return f.Width() * 8
}

// StreamParams describes one recording session. It is fixed for the
// lifetime of the session and is also what the WAV header is written from.
type StreamParams struct {
	Format          SampleFormat
	Channels        int
	Rate            int // Hz
	FramesPerBuffer int // frames per blocking read
	Input           bool
	Output          bool
	Device          string // device name, empty for the default input
}

// DefaultStreamParams matches a typical desktop microphone: 16-bit
// stereo at 44.1kHz read 1024 frames at a time.
func DefaultStreamParams() StreamParams {
	return StreamParams{
		Format:          Int16,
		Channels:        2,
		Rate:            44100,
		FramesPerBuffer: 1024,
		Input:           true,
	}
}

// Validate checks the StreamParams invariants.
func (p StreamParams) Validate() error {
	if p.Format.Width() == 0 {
		return fmt.Errorf("unsupported sample format %q", p.Format)
	}
	if p.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", p.Channels)
	}
	if p.Rate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.Rate)
	}
	if p.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames per buffer must be positive, got %d", p.FramesPerBuffer)
	}
	if !p.Input {
		return fmt.Errorf("stream must be opened for input")
	}
	return nil
}

// ChunkCount returns how many reads of FramesPerBuffer frames cover d.
// The count is rounded up, so a clip can run slightly past d.
func (p StreamParams) ChunkCount(d time.Duration) int {
	num := int64(p.Rate) * int64(d)
	den := int64(p.FramesPerBuffer) * int64(time.Second)
	return int((num + den - 1) / den)
}

// Host is an initialized audio subsystem. Closing it releases the
// device context.
type Host interface {
	OpenInput(p StreamParams) (InputStream, error)
	Close() error
}

// InputStream is an open capture stream.
type InputStream interface {
	// Read blocks until one buffer has been captured and returns its
	// FramesPerBuffer*Channels samples interleaved.
	Read() ([]int, error)
	Close() error
}

// Opener initializes a Host.
type Opener func() (Host, error)

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID      string
	Name    string
	Default bool
}

// Clip describes a recorded waveform file.
type Clip struct {
	Path        string
	Channels    int
	SampleWidth int // bytes
	Rate        int
	Frames      int
}

// Duration returns the recorded length.
func (c Clip) Duration() time.Duration {
	if c.Rate == 0 {
		return 0
	}
	return time.Duration(c.Frames) * time.Second / time.Duration(c.Rate)
}

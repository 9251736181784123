package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
)

const wavFormatPCM = 1

// Recorder captures fixed-duration clips. A Recorder holds no open
// resources between calls; every Record acquires and releases its own
// device, stream and file.
type Recorder struct {
	params StreamParams
	open   Opener
	log    zerolog.Logger
}

// NewRecorder creates a Recorder for the given stream parameters.
func NewRecorder(params StreamParams, open Opener, log zerolog.Logger) *Recorder {
	return &Recorder{params: params, open: open, log: log}
}

// Params returns the stream parameters used for every recording.
func (r *Recorder) Params() StreamParams {
	return r.params
}

// Record captures d of audio into a WAV file at path, overwriting it.
//
// The device is opened before the file is created, so a device failure
// leaves nothing on disk. Once recording has started, the stream, the
// file and the device are released in that order on every return path,
// and a failed recording removes the partial file. Cancelling ctx is
// checked between reads and reported as CaptureInterrupted.
func (r *Recorder) Record(ctx context.Context, d time.Duration, path string) (clip Clip, err error) {
	const op = "record"

	if d <= 0 {
		return Clip{}, apperrors.Newf(apperrors.KindInvalidArgument, op, path, "duration must be positive, got %s", d)
	}
	if err := r.params.Validate(); err != nil {
		return Clip{}, apperrors.New(apperrors.KindInvalidArgument, op, path, err)
	}

	host, err := r.open()
	if err != nil {
		return Clip{}, apperrors.New(apperrors.KindDeviceUnavailable, op, path, err)
	}
	stream, err := host.OpenInput(r.params)
	if err != nil {
		r.closeLogged("device", host.Close)
		return Clip{}, apperrors.New(apperrors.KindDeviceUnavailable, op, path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		r.closeLogged("stream", stream.Close)
		r.closeLogged("device", host.Close)
		return Clip{}, apperrors.New(apperrors.KindInvalidArgument, op, path, fmt.Errorf("failed to create waveform file: %w", err))
	}
	enc := wav.NewEncoder(f, r.params.Rate, r.params.Format.BitDepth(), r.params.Channels, wavFormatPCM)

	defer func() {
		r.closeLogged("stream", stream.Close)
		if cerr := enc.Close(); cerr != nil && err == nil {
			err = apperrors.New(apperrors.KindCaptureInterrupted, op, path, fmt.Errorf("failed to finalize waveform: %w", cerr))
		}
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.New(apperrors.KindCaptureInterrupted, op, path, fmt.Errorf("failed to close waveform file: %w", cerr))
		}
		r.closeLogged("device", host.Close)

		if err != nil {
			if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
				r.log.Warn().Err(rerr).Str("path", path).Msg("Failed to remove partial clip")
			}
			clip = Clip{}
		}
	}()

	chunks := r.params.ChunkCount(d)
	want := r.params.FramesPerBuffer * r.params.Channels
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.params.Channels,
			SampleRate:  r.params.Rate,
		},
		SourceBitDepth: r.params.Format.BitDepth(),
	}

	r.log.Info().
		Str("path", path).
		Dur("duration", d).
		Int("chunks", chunks).
		Int("rate", r.params.Rate).
		Int("channels", r.params.Channels).
		Msg("Start recording")

	for i := 0; i < chunks; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return Clip{}, apperrors.New(apperrors.KindCaptureInterrupted, op, path, cerr)
		}
		samples, rerr := stream.Read()
		if rerr != nil {
			return Clip{}, apperrors.New(apperrors.KindCaptureInterrupted, op, path, fmt.Errorf("read chunk %d: %w", i, rerr))
		}
		if len(samples) != want {
			return Clip{}, apperrors.Newf(apperrors.KindCaptureInterrupted, op, path, "chunk %d: got %d samples, want %d", i, len(samples), want)
		}
		buf.Data = samples
		if werr := enc.Write(buf); werr != nil {
			return Clip{}, apperrors.New(apperrors.KindCaptureInterrupted, op, path, fmt.Errorf("write chunk %d: %w", i, werr))
		}
	}

	r.log.Info().Str("path", path).Msg("Stop recording")

	return Clip{
		Path:        path,
		Channels:    r.params.Channels,
		SampleWidth: r.params.Format.Width(),
		Rate:        r.params.Rate,
		Frames:      chunks * r.params.FramesPerBuffer,
	}, nil
}

func (r *Recorder) closeLogged(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		r.log.Warn().Err(err).Str("resource", what).Msg("Failed to release recording resource")
	}
}

// Package features turns a recorded clip into a matrix of standardized
// MFCC vectors, one row per analysis frame.
//
// The pipeline for one clip is:
//
//  1. decode the WAV file and average its channels to mono
//  2. trim leading and trailing silence (a single pass)
//  3. compute MFCCs over centred, Hann-windowed frames
//  4. drop rows whose coefficients are all exactly zero
//  5. standardize every coefficient column over the surviving rows
//
// Statistics for step 5 come from the clip itself and are never reused.
package features

import (
	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
)

// Config controls MFCC extraction.
type Config struct {
	NumCoefficients int     // MFCCs per frame (default 20)
	FFTSize         int     // analysis window length, power of 2 (default 512)
	HopSize         int     // samples between frames (default 256)
	NumMels         int     // mel bands (default 128)
	FMin            float64 // lowest mel frequency in Hz (default 0)
	FMax            float64 // highest mel frequency in Hz, 0 means Nyquist
	TopDB           float64 // dynamic range kept in the log-mel spectrum (default 80)

	TrimTopDB       float64 // frames this far below the loudest are silence (default 60)
	TrimFrameLength int     // RMS frame length for trimming (default 2048)
	TrimHopLength   int     // RMS hop for trimming (default 512)
}

// DefaultConfig returns 20 MFCCs over 512-sample windows with a 256-sample hop.
func DefaultConfig() Config {
	return Config{
		NumCoefficients: 20,
		FFTSize:         512,
		HopSize:         256,
		NumMels:         128,
		FMin:            0,
		FMax:            0,
		TopDB:           80,
		TrimTopDB:       60,
		TrimFrameLength: 2048,
		TrimHopLength:   512,
	}
}

// Matrix is an ordered sequence of equal-length feature vectors.
type Matrix [][]float64

// Rows returns the number of frames.
func (m Matrix) Rows() int {
	return len(m)
}

// Cols returns the vector length, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Column copies out column j.
func (m Matrix) Column(j int) []float64 {
	col := make([]float64, len(m))
	for i, row := range m {
		col[i] = row[j]
	}
	return col
}

// Extractor computes feature matrices. It holds only read-only tables and
// is safe for concurrent use.
type Extractor struct {
	cfg    Config
	window []float64
	dct    [][]float64
	log    zerolog.Logger
}

// New creates an Extractor with the given config.
func New(cfg Config, log zerolog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		window: hannWindow(cfg.FFTSize),
		dct:    dctBasis(cfg.NumCoefficients, cfg.NumMels),
		log:    log,
	}
}

// Extract loads the WAV file at path and returns its standardized MFCC
// matrix. It fails with UnreadableAudio if the file cannot be decoded and
// with EmptyClip if no frames survive trimming and filtering.
func (e *Extractor) Extract(path string) (Matrix, error) {
	signal, rate, err := loadMono(path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindUnreadableAudio, "extract", path, err)
	}
	m, err := e.ExtractSignal(signal, rate)
	if err != nil {
		if ae, ok := err.(*apperrors.Error); ok {
			ae.Path = path
		}
		return nil, err
	}
	return m, nil
}

// ExtractSignal runs the pipeline on an already decoded mono signal.
func (e *Extractor) ExtractSignal(signal []float64, rate int) (Matrix, error) {
	trimmed := trimSilence(signal, e.cfg.TrimTopDB, e.cfg.TrimFrameLength, e.cfg.TrimHopLength)
	if len(trimmed) == 0 {
		return nil, apperrors.Newf(apperrors.KindEmptyClip, "extract", "", "clip is silent")
	}

	raw := e.mfcc(trimmed, rate)
	kept := DropSilentRows(raw)

	e.log.Debug().
		Int("samples", len(signal)).
		Int("trimmed_samples", len(trimmed)).
		Int("frames", len(raw)).
		Int("kept_frames", len(kept)).
		Msg("Extracted features")

	if len(kept) == 0 {
		return nil, apperrors.Newf(apperrors.KindEmptyClip, "extract", "", "no non-zero frames in %d", len(raw))
	}
	return Standardize(kept), nil
}

// Package identify runs the capture, feature extraction and classification
// steps in sequence and reports who was speaking.
package identify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/classify"
	"github.com/petems/voicevault/internal/features"
	"github.com/petems/voicevault/internal/history"
	"github.com/petems/voicevault/internal/speaker"
)

// StatusUpdater is an interface for updating status (e.g., a shell's
// progress indicator)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetProcessing()
	SetError()
}

// Recorder captures a clip of fixed duration to path.
type Recorder interface {
	Record(ctx context.Context, d time.Duration, path string) (audio.Clip, error)
}

// Extractor turns a waveform file into a normalized feature matrix.
type Extractor interface {
	Extract(path string) (features.Matrix, error)
}

// ModelLoader loads an ordered speaker model set.
type ModelLoader interface {
	Load(ctx context.Context, paths []string) (*speaker.Set, error)
}

type Config struct {
	Recorder  Recorder
	Extractor Extractor
	Loader    ModelLoader
	// Models is used when a Request names no model paths. Optional.
	Models *speaker.Set
	// HistoryPath receives the winner of every successful run. Optional.
	HistoryPath   string
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

// Request is one identification run.
type Request struct {
	Duration   time.Duration
	ClipPath   string
	ModelPaths []string // overrides Config.Models when non-empty
}

// Result is the decision of a successful run.
type Result struct {
	Speaker string
	Tally   classify.Tally
	Clip    audio.Clip
}

type Pipeline struct {
	rec     Recorder
	ext     Extractor
	loader  ModelLoader
	models  *speaker.Set
	history string
	log     zerolog.Logger
	status  StatusUpdater
}

func New(cfg Config) *Pipeline {
	return &Pipeline{
		rec:     cfg.Recorder,
		ext:     cfg.Extractor,
		loader:  cfg.Loader,
		models:  cfg.Models,
		history: cfg.HistoryPath,
		log:     cfg.Logger,
		status:  cfg.StatusUpdater,
	}
}

// Identify records a clip, extracts its features, loads the models and
// classifies the clip. The first failure ends the run and is returned
// with its kind intact; nothing is written to the history in that case.
func (p *Pipeline) Identify(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		if p.status == nil {
			return
		}
		if err != nil {
			p.status.SetError()
		} else {
			p.status.SetIdle()
		}
	}()

	if p.status != nil {
		p.status.SetRecording()
	}
	clip, err := p.rec.Record(ctx, req.Duration, req.ClipPath)
	if err != nil {
		p.log.Error().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("Capture failed")
		return Result{}, err
	}

	if p.status != nil {
		p.status.SetProcessing()
	}
	m, err := p.ext.Extract(clip.Path)
	if err != nil {
		p.log.Error().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("Feature extraction failed")
		return Result{}, err
	}

	models, err := p.modelSet(ctx, req.ModelPaths)
	if err != nil {
		p.log.Error().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("Model load failed")
		return Result{}, err
	}

	winner, tally, err := classify.Classify(m, models)
	if err != nil {
		p.log.Error().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("Classification failed")
		return Result{}, err
	}

	p.log.Info().
		Str("speaker", winner).
		Int("frames", tally.Total()).
		Interface("tally", tally.Map()).
		Msg("Identified")

	if p.history != "" {
		if err := history.Append(p.history, winner); err != nil {
			return Result{}, fmt.Errorf("failed to record history: %w", err)
		}
	}

	return Result{Speaker: winner, Tally: tally, Clip: clip}, nil
}

func (p *Pipeline) modelSet(ctx context.Context, paths []string) (*speaker.Set, error) {
	if len(paths) == 0 {
		if p.models != nil {
			return p.models, nil
		}
		return nil, apperrors.Newf(apperrors.KindModelLoadError, "identify", "", "no speaker models configured")
	}
	if p.loader == nil {
		return nil, apperrors.Newf(apperrors.KindModelLoadError, "identify", "", "no model loader configured")
	}
	return p.loader.Load(ctx, paths)
}

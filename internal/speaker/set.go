package speaker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/petems/voicevault/internal/apperrors"
)

// Set is an ordered collection of speaker models. The order is the
// tie-break priority used when classifying: lower index wins.
type Set struct {
	models []Model
}

// NewSet creates a Set from already constructed models.
func NewSet(models ...Model) *Set {
	return &Set{models: append([]Model(nil), models...)}
}

// Len returns the number of models.
func (s *Set) Len() int { return len(s.models) }

// Model returns the i-th model.
func (s *Set) Model(i int) Model { return s.models[i] }

// Label returns the label of the i-th model.
func (s *Set) Label(i int) string { return s.models[i].Label() }

// Labels returns all labels in enumeration order.
func (s *Set) Labels() []string {
	labels := make([]string, len(s.models))
	for i, m := range s.models {
		labels[i] = m.Label()
	}
	return labels
}

// Score returns the log-likelihood of x under the i-th model.
func (s *Set) Score(i int, x []float64) (float64, error) {
	if i < 0 || i >= len(s.models) {
		return 0, fmt.Errorf("model index %d out of range [0, %d)", i, len(s.models))
	}
	return s.models[i].Score(x)
}

// Loader reads model artifacts from disk or, for http(s) paths, from a
// download cache.
type Loader struct {
	// CacheDir receives downloaded artifacts. Defaults to a directory
	// under os.TempDir().
	CacheDir string
	// Client is used for downloads. Defaults to http.DefaultClient.
	Client *http.Client
	Logger zerolog.Logger
}

// Load reads the artifacts at paths, in order, into a Set. Any failure
// is reported as ModelLoadError naming the offending path.
func (l Loader) Load(ctx context.Context, paths []string) (*Set, error) {
	if len(paths) == 0 {
		return nil, apperrors.Newf(apperrors.KindModelLoadError, "load models", "", "no model artifacts given")
	}

	models := make([]Model, 0, len(paths))
	for _, p := range paths {
		local := p
		if isRemote(p) {
			var err error
			local, err = l.fetch(ctx, p)
			if err != nil {
				return nil, apperrors.New(apperrors.KindModelLoadError, "load models", p, err)
			}
		}

		a, err := ReadArtifact(local)
		if err != nil {
			return nil, apperrors.New(apperrors.KindModelLoadError, "load models", p, err)
		}
		m, err := a.Model(labelFromPath(local))
		if err != nil {
			return nil, apperrors.New(apperrors.KindModelLoadError, "load models", p, err)
		}
		if len(models) > 0 && m.Dimension() != models[0].Dimension() {
			return nil, apperrors.Newf(apperrors.KindModelLoadError, "load models", p,
				"model dimension %d differs from %d", m.Dimension(), models[0].Dimension())
		}

		l.Logger.Debug().
			Str("path", p).
			Str("label", m.Label()).
			Int("dimension", m.Dimension()).
			Msg("Loaded speaker model")
		models = append(models, m)
	}
	return &Set{models: models}, nil
}

// Load reads local artifacts with a default Loader.
func Load(paths ...string) (*Set, error) {
	return Loader{Logger: zerolog.Nop()}.Load(context.Background(), paths)
}

func (l Loader) cacheDir() string {
	if l.CacheDir != "" {
		return l.CacheDir
	}
	return filepath.Join(os.TempDir(), "voicevault-models")
}

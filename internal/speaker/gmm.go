package speaker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/petems/voicevault/internal/apperrors"
)

// CovarianceType selects how component covariances are parameterized.
type CovarianceType string

const (
	CovFull      CovarianceType = "full"      // one d×d matrix per component
	CovDiag      CovarianceType = "diag"      // one variance vector per component
	CovSpherical CovarianceType = "spherical" // one variance per component
	CovTied      CovarianceType = "tied"      // one d×d matrix shared by all components
)

// GMM is a Gaussian mixture model.
type GMM struct {
	label      string
	covType    CovarianceType
	dim        int
	logWeights []float64
	components []*distmv.Normal
}

// Component is one weighted Gaussian of a mixture. Covariance is d×d for
// full, 1×d for diag and 1×1 for spherical mixtures, and unused for tied
// ones.
type Component struct {
	Weight     float64     `yaml:"weight" json:"weight" msgpack:"weight"`
	Mean       []float64   `yaml:"mean" json:"mean" msgpack:"mean"`
	Covariance [][]float64 `yaml:"covariance,omitempty" json:"covariance,omitempty" msgpack:"covariance,omitempty"`
}

// NewGMM builds a mixture from its parameters. Weights are normalized to
// sum to one; every covariance must be positive definite.
func NewGMM(label string, covType CovarianceType, components []Component, tied [][]float64) (*GMM, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("mixture has no components")
	}
	dim := len(components[0].Mean)
	if dim == 0 {
		return nil, fmt.Errorf("component 0 has an empty mean")
	}

	total := 0.0
	for i, c := range components {
		if c.Weight < 0 || math.IsNaN(c.Weight) {
			return nil, fmt.Errorf("component %d has invalid weight %v", i, c.Weight)
		}
		total += c.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("component weights sum to %v", total)
	}

	g := &GMM{
		label:      label,
		covType:    covType,
		dim:        dim,
		logWeights: make([]float64, len(components)),
		components: make([]*distmv.Normal, len(components)),
	}

	var tiedSigma *mat.SymDense
	if covType == CovTied {
		s, err := squareSym(tied, dim)
		if err != nil {
			return nil, fmt.Errorf("tied covariance: %w", err)
		}
		tiedSigma = s
	}

	for i, c := range components {
		if len(c.Mean) != dim {
			return nil, fmt.Errorf("component %d: mean has length %d, want %d", i, len(c.Mean), dim)
		}
		sigma, err := componentSigma(covType, c.Covariance, dim, tiedSigma)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		normal, ok := distmv.NewNormal(c.Mean, sigma, nil)
		if !ok {
			return nil, fmt.Errorf("component %d: covariance is not positive definite", i)
		}
		g.logWeights[i] = math.Log(c.Weight / total)
		g.components[i] = normal
	}
	return g, nil
}

func componentSigma(covType CovarianceType, cov [][]float64, dim int, tied *mat.SymDense) (*mat.SymDense, error) {
	switch covType {
	case CovFull:
		return squareSym(cov, dim)
	case CovDiag:
		if len(cov) != 1 || len(cov[0]) != dim {
			return nil, fmt.Errorf("diag covariance must be 1x%d", dim)
		}
		return diagSym(cov[0]), nil
	case CovSpherical:
		if len(cov) != 1 || len(cov[0]) != 1 {
			return nil, fmt.Errorf("spherical covariance must be 1x1")
		}
		v := make([]float64, dim)
		for i := range v {
			v[i] = cov[0][0]
		}
		return diagSym(v), nil
	case CovTied:
		return tied, nil
	default:
		return nil, fmt.Errorf("unknown covariance type %q", covType)
	}
}

func squareSym(rows [][]float64, dim int) (*mat.SymDense, error) {
	if len(rows) != dim {
		return nil, fmt.Errorf("covariance has %d rows, want %d", len(rows), dim)
	}
	data := make([]float64, 0, dim*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("covariance row %d has %d values, want %d", i, len(row), dim)
		}
		data = append(data, row...)
	}
	return mat.NewSymDense(dim, data), nil
}

func diagSym(v []float64) *mat.SymDense {
	s := mat.NewSymDense(len(v), nil)
	for i, x := range v {
		s.SetSym(i, i, x)
	}
	return s
}

func (g *GMM) Label() string { return g.label }

func (g *GMM) Dimension() int { return g.dim }

// CovarianceType returns the covariance parameterization.
func (g *GMM) CovarianceType() CovarianceType { return g.covType }

// NumComponents returns the number of mixture components.
func (g *GMM) NumComponents() int { return len(g.components) }

// Score returns log Σ_k w_k N(x | μ_k, Σ_k).
func (g *GMM) Score(x []float64) (float64, error) {
	if len(x) != g.dim {
		return 0, apperrors.Newf(apperrors.KindDimensionMismatch, "score", "", "model %q expects %d values, got %d", g.label, g.dim, len(x))
	}
	terms := make([]float64, len(g.components))
	for k, n := range g.components {
		terms[k] = g.logWeights[k] + n.LogProb(x)
	}
	return floats.LogSumExp(terms), nil
}

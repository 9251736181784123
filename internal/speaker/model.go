// Package speaker holds the enrolled speaker models and scores feature
// vectors against them.
//
// Models are produced by an external training process and loaded from one
// artifact file per speaker. Once loaded they are immutable: Score is a
// pure function of the stored parameters and its input, so a Set can be
// shared between goroutines without locking.
package speaker

// Model is a fitted probability density over feature vectors.
type Model interface {
	// Label is the identity the model was enrolled for.
	Label() string

	// Dimension is the feature vector length the model expects.
	Dimension() int

	// Score returns the log-likelihood of x. It fails with
	// DimensionMismatch if len(x) != Dimension().
	Score(x []float64) (float64, error)
}

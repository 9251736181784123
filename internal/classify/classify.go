// Package classify turns per-frame model scores into a single speaker
// decision by majority vote.
package classify

import (
	"fmt"

	"github.com/petems/voicevault/internal/apperrors"
	"github.com/petems/voicevault/internal/features"
)

// Models is the view of a speaker model set the classifier needs.
// Index order is the tie-break priority.
type Models interface {
	Len() int
	Label(i int) string
	Score(i int, x []float64) (float64, error)
}

// Tally holds the number of frames won by each label, in model order.
type Tally struct {
	labels []string
	counts []int
}

// Labels returns the labels in model order.
func (t Tally) Labels() []string { return append([]string(nil), t.labels...) }

// Count returns the votes for label, or 0 if it is unknown.
func (t Tally) Count(label string) int {
	for i, l := range t.labels {
		if l == label {
			return t.counts[i]
		}
	}
	return 0
}

// Total returns the number of frames voted.
func (t Tally) Total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// Map returns the tally keyed by label.
func (t Tally) Map() map[string]int {
	m := make(map[string]int, len(t.labels))
	for i, l := range t.labels {
		m[l] += t.counts[i]
	}
	return m
}

// Winner returns the label with the most votes. Ties go to the label
// that comes first in model order.
func (t Tally) Winner() string {
	best := -1
	for i, c := range t.counts {
		if best < 0 || c > t.counts[best] {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return t.labels[best]
}

// Classify scores every row of m under every model. Each row votes for
// the model with the strictly greatest score, the earliest model winning
// ties, and the label with the most votes is returned.
func Classify(m features.Matrix, models Models) (string, Tally, error) {
	if m.Rows() == 0 {
		return "", Tally{}, apperrors.Newf(apperrors.KindEmptyMatrix, "classify", "", "feature matrix has no rows")
	}
	n := models.Len()
	if n == 0 {
		return "", Tally{}, apperrors.Newf(apperrors.KindInvalidArgument, "classify", "", "no speaker models")
	}

	tally := Tally{labels: make([]string, n), counts: make([]int, n)}
	for i := 0; i < n; i++ {
		tally.labels[i] = models.Label(i)
	}

	for r, row := range m {
		best := 0
		var bestScore float64
		for i := 0; i < n; i++ {
			s, err := models.Score(i, row)
			if err != nil {
				return "", Tally{}, fmt.Errorf("failed to score frame %d under %q: %w", r, tally.labels[i], err)
			}
			if i == 0 || s > bestScore {
				best, bestScore = i, s
			}
		}
		tally.counts[best]++
	}
	return tally.Winner(), tally, nil
}

package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DropSilentRows returns the rows that have at least one non-zero value.
// The input is not modified.
func DropSilentRows(m Matrix) Matrix {
	out := make(Matrix, 0, len(m))
	for _, row := range m {
		for _, v := range row {
			if v != 0 {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Standardize returns a new matrix whose columns have zero mean and unit
// population variance. Constant columns are centred but not scaled.
func Standardize(m Matrix) Matrix {
	rows, cols := m.Rows(), m.Cols()
	out := make(Matrix, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}

	for j := 0; j < cols; j++ {
		mean, variance := stat.PopMeanVariance(m.Column(j), nil)
		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		for i, row := range m {
			out[i][j] = (row[j] - mean) / std
		}
	}
	return out
}

package formulas

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CorrelationMatrix builds the pairwise Pearson correlation matrix of series.
//
// The result is symmetric by construction, has an exact 1 diagonal and all
// entries clamped to [-1, 1]. A constant series has zero correlation with the
// others. A single series yields the trivial 1x1 matrix.
func CorrelationMatrix(series [][]float64) (*mat.SymDense, error) {
	n := len(series)
	if n == 0 {
		return nil, metricErr("correlation_matrix", fmt.Errorf("%w: no series", ErrInsufficientData))
	}

	length := len(series[0])
	for i, s := range series {
		if len(s) != length {
			return nil, metricErr("correlation_matrix", fmt.Errorf("%w: series %d has %d observations, expected %d",
				ErrDimensionMismatch, i, len(s), length))
		}
	}
	if n > 1 && length < MinObservations {
		return nil, metricErr("correlation_matrix", fmt.Errorf("%w: need at least %d observations",
			ErrInsufficientData, MinObservations))
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			c, err := Correlation(series[i], series[j])
			if err != nil {
				return nil, metricErr("correlation_matrix", err)
			}
			corr.SetSym(i, j, c)
		}
	}

	return corr, nil
}

// SymToRows copies a symmetric matrix into row slices.
func SymToRows(m mat.Symmetric) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

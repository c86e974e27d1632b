package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ShiftCorrelation returns a copy of corr with every off-diagonal entry moved
// by shift and clamped to [-1, 1]. The diagonal stays at 1.
func ShiftCorrelation(corr mat.Symmetric, shift float64) *mat.SymDense {
	n := corr.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			out.SetSym(i, j, clamp(corr.At(i, j)+shift, -1, 1))
		}
	}
	return out
}

// CovarianceFromCorrelation builds Σ_ij = σ_i σ_j ρ_ij.
func CovarianceFromCorrelation(stdDevs []float64, corr mat.Symmetric) (*mat.SymDense, error) {
	n := corr.SymmetricDim()
	if len(stdDevs) != n {
		return nil, fmt.Errorf("%w: %d volatilities for %dx%d correlation matrix", ErrDimensionMismatch, len(stdDevs), n, n)
	}
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, stdDevs[i]*stdDevs[j]*corr.At(i, j))
		}
	}
	return cov, nil
}

// PortfolioVolatility returns sqrt(wᵀ Σ w). Tiny negative quadratic forms from
// shifted (non positive semi-definite) matrices are floored at zero.
func PortfolioVolatility(weights []float64, cov mat.Symmetric) (float64, error) {
	n := cov.SymmetricDim()
	if len(weights) != n {
		return 0, fmt.Errorf("%w: %d weights for %dx%d covariance matrix", ErrDimensionMismatch, len(weights), n, n)
	}
	w := mat.NewVecDense(n, append([]float64(nil), weights...))
	variance := mat.Inner(w, cov, w)
	return math.Sqrt(math.Max(variance, 0)), nil
}

// StressedVolatility returns portfolio volatility after multiplying every asset
// volatility by volMultiplier and shifting correlations by corrShift.
func StressedVolatility(weights, stdDevs []float64, corr mat.Symmetric, volMultiplier, corrShift float64) (float64, error) {
	scaled := make([]float64, len(stdDevs))
	for i, s := range stdDevs {
		scaled[i] = s * volMultiplier
	}
	cov, err := CovarianceFromCorrelation(scaled, ShiftCorrelation(corr, corrShift))
	if err != nil {
		return 0, err
	}
	return PortfolioVolatility(weights, cov)
}

// RiskContributions decomposes portfolio volatility into per-asset parts.
//
//	marginal_i  = (Σw)_i / σ_p
//	component_i = w_i * marginal_i    (components sum to σ_p)
func RiskContributions(weights []float64, cov mat.Symmetric) (marginal, component []float64, vol float64, err error) {
	vol, err = PortfolioVolatility(weights, cov)
	if err != nil {
		return nil, nil, 0, err
	}
	if isFlat(vol) {
		return nil, nil, 0, fmt.Errorf("%w: portfolio volatility is zero", ErrZeroVolatility)
	}

	n := len(weights)
	var sigmaW mat.VecDense
	sigmaW.MulVec(cov, mat.NewVecDense(n, append([]float64(nil), weights...)))

	marginal = make([]float64, n)
	component = make([]float64, n)
	for i := 0; i < n; i++ {
		marginal[i] = sigmaW.AtVec(i) / vol
		component[i] = weights[i] * marginal[i]
	}
	return marginal, component, vol, nil
}

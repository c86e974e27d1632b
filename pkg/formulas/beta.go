package formulas

import (
	"fmt"
)

// BetaAlpha calculates market sensitivity against an explicit benchmark.
//
//	beta  = cov(returns, benchmark) / var(benchmark)
//	alpha = mean(returns) - beta * mean(benchmark)
//
// The benchmark is never synthesized: an empty benchmark is ErrMissingBenchmark.
func BetaAlpha(returns, benchmark []float64) (beta, alpha float64, err error) {
	if len(benchmark) == 0 {
		return 0, 0, metricErr("beta", ErrMissingBenchmark)
	}
	if len(returns) != len(benchmark) {
		return 0, 0, metricErr("beta", fmt.Errorf("%w: %d returns vs %d benchmark returns",
			ErrDimensionMismatch, len(returns), len(benchmark)))
	}
	if err := requireObservations("beta", returns); err != nil {
		return 0, 0, err
	}

	if isFlat(StdDev(benchmark)) {
		return 0, 0, metricErr("beta", fmt.Errorf("%w: benchmark variance is zero", ErrZeroVolatility))
	}

	cov, err := Covariance(returns, benchmark)
	if err != nil {
		return 0, 0, metricErr("beta", err)
	}

	beta = cov / Variance(benchmark)
	alpha = Mean(returns) - beta*Mean(benchmark)
	return beta, alpha, nil
}

// RSquared is the share of return variance explained by the benchmark.
func RSquared(returns, benchmark []float64) (float64, error) {
	corr, err := Correlation(returns, benchmark)
	if err != nil {
		return 0, metricErr("r_squared", err)
	}
	return corr * corr, nil
}

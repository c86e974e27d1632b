package formulas

import (
	"fmt"
)

// SharpeRatio calculates the Sharpe Ratio over the periodicity of the inputs.
//
// Sharpe Ratio Formula:
//
//	Sharpe = mean(returns - riskFree) / std(returns - riskFree)
//
// riskFreeRate must be expressed per period (daily rate for daily returns).
// A zero denominator is an error, never +Inf or NaN.
func SharpeRatio(returns []float64, riskFreeRate float64) (float64, error) {
	if err := requireObservations("sharpe", returns); err != nil {
		return 0, err
	}

	excess := subtract(returns, riskFreeRate)
	std := StdDev(excess)
	if isFlat(std) {
		return 0, metricErr("sharpe", fmt.Errorf("%w: excess returns have no dispersion", ErrZeroVolatility))
	}

	return Mean(excess) / std, nil
}

// SortinoRatio calculates the Sortino Ratio (downside deviation version of Sharpe).
//
// Sortino Formula:
//
//	Sortino = mean(returns - riskFree) / std(negative returns)
//
// Convention: when fewer than two returns are negative, or the negative
// returns are all equal, the downside deviation is unusable and the overall
// standard deviation of returns is used instead. The ratio stays finite for
// all-positive series.
func SortinoRatio(returns []float64, riskFreeRate float64) (float64, error) {
	if err := requireObservations("sortino", returns); err != nil {
		return 0, err
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	deviation := StdDev(returns)
	if len(downside) >= MinObservations {
		if d := StdDev(downside); !isFlat(d) {
			deviation = d
		}
	}
	if isFlat(deviation) {
		return 0, metricErr("sortino", fmt.Errorf("%w: downside deviation is zero", ErrZeroVolatility))
	}

	return Mean(subtract(returns, riskFreeRate)) / deviation, nil
}

// PeriodicRate converts an annual rate into a per-period rate using simple division,
// matching how annual risk-free rates are quoted against daily returns.
func PeriodicRate(annualRate float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return annualRate
	}
	return annualRate / float64(periodsPerYear)
}

// Package formulas provides pure risk and performance calculations on return series.
package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is used to annualize daily statistics.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to simple returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInsufficientData, len(prices))
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
			return nil, fmt.Errorf("%w: non-positive price %v at index %d", ErrInsufficientData, prev, i-1)
		}
		returns[i-1] = prices[i]/prev - 1
	}

	return returns, nil
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d vs %d observations", ErrDimensionMismatch, len(x), len(y))
	}
	if len(x) < MinObservations {
		return 0, fmt.Errorf("%w: need at least %d observations", ErrInsufficientData, MinObservations)
	}
	if isFlat(StdDev(x)) || isFlat(StdDev(y)) {
		return 0, nil
	}
	return clamp(stat.Correlation(x, y, nil), -1, 1), nil
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d vs %d observations", ErrDimensionMismatch, len(x), len(y))
	}
	if len(x) < MinObservations {
		return 0, fmt.Errorf("%w: need at least %d observations", ErrInsufficientData, MinObservations)
	}
	return stat.Covariance(x, y, nil), nil
}

// isFlat reports whether a standard deviation is numerically zero.
func isFlat(std float64) bool {
	return math.IsNaN(std) || std <= zeroVolatilityEpsilon
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func subtract(data []float64, c float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - c
	}
	return out
}

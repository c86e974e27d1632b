package formulas

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// HistoricalVaR returns the empirical (1-confidence) quantile of returns.
// The quantile is always an observed return.
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if err := validateConfidence("historical_var", confidence); err != nil {
		return 0, err
	}
	if err := requireObservations("historical_var", returns); err != nil {
		return 0, err
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return stat.Quantile(1-confidence, stat.Empirical, sorted, nil), nil
}

// ParametricVaR returns the (1-confidence) quantile of a normal distribution
// fitted to the sample mean and standard deviation of returns.
func ParametricVaR(returns []float64, confidence float64) (float64, error) {
	if err := validateConfidence("parametric_var", confidence); err != nil {
		return 0, err
	}
	if err := requireObservations("parametric_var", returns); err != nil {
		return 0, err
	}

	mean, std := stat.MeanStdDev(returns, nil)
	return mean + distuv.UnitNormal.Quantile(1-confidence)*std, nil
}

// VaR calculates Value at Risk as the more conservative (more negative) of the
// historical and parametric estimates. Losses are negative returns.
//
// Args:
//   - returns: Historical period returns
//   - confidence: Confidence level in (0,1), e.g. 0.99
//
// Returns:
//   - VaR as a return threshold (negative for losses)
func VaR(returns []float64, confidence float64) (float64, error) {
	historical, err := HistoricalVaR(returns, confidence)
	if err != nil {
		return 0, err
	}
	parametric, err := ParametricVaR(returns, confidence)
	if err != nil {
		return 0, err
	}

	if parametric < historical {
		return parametric, nil
	}
	return historical, nil
}

// CVaR calculates Conditional Value at Risk: the mean of all returns at or
// below the VaR threshold at the same confidence.
//
// Fails with ErrDegenerateCVaR when the parametric VaR lies below every
// observation, which happens on short series at high confidence.
func CVaR(returns []float64, confidence float64) (float64, error) {
	threshold, err := VaR(returns, confidence)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	count := 0
	for _, r := range returns {
		if r <= threshold {
			sum += r
			count++
		}
	}

	if count == 0 {
		return 0, metricErr("cvar", fmt.Errorf("%w: VaR %.6f at confidence %v below all %d returns",
			ErrDegenerateCVaR, threshold, confidence, len(returns)))
	}

	return sum / float64(count), nil
}

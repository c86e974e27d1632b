// Package metrics computes the risk measures of a portfolio return series.
package metrics

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Calculator computes RiskMetrics at a fixed confidence level and risk-free rate
type Calculator struct {
	confidence   float64
	riskFreeRate float64 // Per period, same periodicity as the returns
}

// NewCalculator creates a calculator. riskFreeRate is per period.
func NewCalculator(confidence, riskFreeRate float64) *Calculator {
	return &Calculator{
		confidence:   confidence,
		riskFreeRate: riskFreeRate,
	}
}

// Confidence returns the configured confidence level.
func (c *Calculator) Confidence() float64 {
	return c.confidence
}

// Calculate applies every risk formula to the portfolio series of set.
// The benchmark is required for beta and alpha. A failing metric never
// discards the others: the returned RiskMetrics carries every metric that
// could be computed, failed ones stay zero and are listed in Failures, and
// the combined error holds one *formulas.MetricError per failure.
func (c *Calculator) Calculate(set domain.ReturnSet, benchmark domain.Benchmark) (domain.RiskMetrics, error) {
	returns := set.Portfolio.Returns()

	var (
		m    domain.RiskMetrics
		errs error
		err  error
	)
	m.Confidence = c.confidence
	m.Observations = len(returns)

	m.HistoricalVaR, err = formulas.HistoricalVaR(returns, c.confidence)
	errs = multierr.Append(errs, err)
	m.ParametricVaR, err = formulas.ParametricVaR(returns, c.confidence)
	errs = multierr.Append(errs, err)
	if errs == nil {
		m.VaR = min(m.HistoricalVaR, m.ParametricVaR)
		m.CVaR, err = formulas.CVaR(returns, c.confidence)
		errs = multierr.Append(errs, err)
	}

	m.SharpeRatio, err = formulas.SharpeRatio(returns, c.riskFreeRate)
	errs = multierr.Append(errs, err)
	m.SortinoRatio, err = formulas.SortinoRatio(returns, c.riskFreeRate)
	errs = multierr.Append(errs, err)

	m.MaxDrawdown, err = formulas.MaxDrawdown(returns)
	errs = multierr.Append(errs, err)

	m.Beta, m.Alpha, err = formulas.BetaAlpha(returns, benchmark.Returns)
	errs = multierr.Append(errs, err)

	m.AnnualizedVolatility = formulas.AnnualizedVolatility(returns)

	corr, err := formulas.CorrelationMatrix(set.AssetReturns())
	if err == nil {
		ids := make([]string, len(set.Assets))
		for i, s := range set.Assets {
			ids[i] = s.AssetID
		}
		m.Correlation = domain.CorrelationMatrix{Assets: ids, Values: formulas.SymToRows(corr)}
	}
	errs = multierr.Append(errs, err)

	m.Failures = failures(errs)
	return m, errs
}

// failures maps each failed metric name to its error message.
func failures(errs error) map[string]string {
	if errs == nil {
		return nil
	}
	out := make(map[string]string)
	for _, err := range multierr.Errors(errs) {
		name := "unknown"
		var metricErr *formulas.MetricError
		if errors.As(err, &metricErr) {
			name = metricErr.Metric
		}
		out[name] = err.Error()
	}
	return out
}

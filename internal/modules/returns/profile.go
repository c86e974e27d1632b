package returns

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Profile is the cross-sectional view of a portfolio that the shock models
// work on: current value, value weights, per-period volatilities and
// correlations, all in portfolio order.
type Profile struct {
	Corr      *mat.SymDense
	AssetIDs  []string
	Weights   []float64
	StdDevs   []float64
	Durations []float64
	Value     float64
}

// NewProfile builds a Profile from a validated portfolio and its return set.
func NewProfile(portfolio domain.Portfolio, set domain.ReturnSet) (*Profile, error) {
	if len(set.Assets) != len(portfolio.Positions) {
		return nil, fmt.Errorf("%w: %d return series for %d positions",
			formulas.ErrDimensionMismatch, len(set.Assets), len(portfolio.Positions))
	}

	weights, err := portfolio.Weights()
	if err != nil {
		return nil, err
	}

	rows := set.AssetReturns()
	corr, err := formulas.CorrelationMatrix(rows)
	if err != nil {
		return nil, err
	}

	stdDevs := make([]float64, len(rows))
	for i, r := range rows {
		stdDevs[i] = formulas.StdDev(r)
	}

	durations := make([]float64, len(portfolio.Positions))
	for i, pos := range portfolio.Positions {
		durations[i] = pos.Duration
	}

	return &Profile{
		Corr:      corr,
		AssetIDs:  portfolio.AssetIDs(),
		Weights:   weights,
		StdDevs:   stdDevs,
		Durations: durations,
		Value:     portfolio.Value(),
	}, nil
}

// Volatility is the current per-period portfolio volatility.
func (p *Profile) Volatility() (float64, error) {
	return p.StressedVolatility(1, 0)
}

// StressedVolatility is the portfolio volatility with asset volatilities
// scaled by volMultiplier and correlations shifted by corrShift.
func (p *Profile) StressedVolatility(volMultiplier, corrShift float64) (float64, error) {
	return formulas.StressedVolatility(p.Weights, p.StdDevs, p.Corr, volMultiplier, corrShift)
}

// Covariance is the covariance matrix implied by StdDevs and Corr.
func (p *Profile) Covariance() (*mat.SymDense, error) {
	return formulas.CovarianceFromCorrelation(p.StdDevs, p.Corr)
}

// DurationExposure is the value-weighted sensitivity to a rate move with curve
// steepening: Σ w_i · D_i · (rateChange + steepening · min(D_i/10, 1)).
func (p *Profile) DurationExposure(rateChange, steepening float64) float64 {
	total := 0.0
	for i, d := range p.Durations {
		total += p.Weights[i] * d * (rateChange + steepening*min(d/10, 1))
	}
	return total
}

// Package returns turns portfolio price histories into aligned return series.
package returns

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Extractor derives per-asset and portfolio return series from price histories.
// Histories must already be aligned: no resampling or gap filling happens here.
type Extractor struct{}

// NewExtractor creates a new returns extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes simple period returns for every position and for the
// quantity-weighted portfolio value series.
func (e *Extractor) Extract(portfolio domain.Portfolio) (domain.ReturnSet, error) {
	if len(portfolio.Positions) == 0 {
		return domain.ReturnSet{}, fmt.Errorf("%w: portfolio has no positions", formulas.ErrInsufficientData)
	}

	if err := checkAlignment(portfolio.Positions); err != nil {
		return domain.ReturnSet{}, err
	}

	length := len(portfolio.Positions[0].PriceHistory)
	values := make([]float64, length)
	assets := make([]domain.ReturnSeries, len(portfolio.Positions))

	for i, pos := range portfolio.Positions {
		prices := pos.Prices()
		r, err := formulas.CalculateReturns(prices)
		if err != nil {
			return domain.ReturnSet{}, fmt.Errorf("asset %s: %w", pos.AssetID, err)
		}
		assets[i] = domain.NewReturnSeries(pos.AssetID, r)

		for t, p := range prices {
			values[t] += pos.Quantity * p
		}
	}

	for t, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return domain.ReturnSet{}, fmt.Errorf("%w: portfolio value overflows at index %d",
				domain.ErrInvalidPortfolio, t)
		}
	}

	portfolioReturns, err := formulas.CalculateReturns(values)
	if err != nil {
		return domain.ReturnSet{}, fmt.Errorf("portfolio value series: %w", err)
	}

	periods := make([]time.Time, length-1)
	for t := 1; t < length; t++ {
		periods[t-1] = portfolio.Positions[0].PriceHistory[t].Time
	}

	return domain.ReturnSet{
		Assets:    assets,
		Portfolio: domain.NewReturnSeries(portfolio.Name, portfolioReturns),
		Periods:   periods,
	}, nil
}

// checkAlignment requires equal-length histories with matching timestamps.
func checkAlignment(positions []domain.Position) error {
	ref := positions[0]
	for _, pos := range positions {
		if len(pos.PriceHistory) < formulas.MinObservations {
			return fmt.Errorf("%w: asset %s has %d prices, need at least %d",
				formulas.ErrInsufficientData, pos.AssetID, len(pos.PriceHistory), formulas.MinObservations)
		}
	}

	for _, pos := range positions[1:] {
		if len(pos.PriceHistory) != len(ref.PriceHistory) {
			return fmt.Errorf("%w: asset %s has %d prices, asset %s has %d",
				formulas.ErrDimensionMismatch, pos.AssetID, len(pos.PriceHistory),
				ref.AssetID, len(ref.PriceHistory))
		}
		for t, pt := range pos.PriceHistory {
			if !pt.Time.Equal(ref.PriceHistory[t].Time) {
				return fmt.Errorf("%w: asset %s timestamp %s differs from %s at index %d",
					formulas.ErrDimensionMismatch, pos.AssetID,
					pt.Time.Format(time.RFC3339), ref.PriceHistory[t].Time.Format(time.RFC3339), t)
			}
		}
	}
	return nil
}

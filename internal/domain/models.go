// Package domain provides core domain models and types.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// ErrInvalidPortfolio is returned when a portfolio violates its structural invariants.
var ErrInvalidPortfolio = errors.New("invalid portfolio")

// PricePoint is a single timestamped price observation
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Position represents a portfolio position with its price history
type Position struct {
	AssetID      string       `json:"asset_id"`
	Quantity     float64      `json:"quantity"`
	PriceHistory []PricePoint `json:"price_history"`

	// Optional metadata used by the liquidity, counterparty and rate analyses.
	Duration       float64 `json:"duration,omitempty"`         // Modified duration; 0 = no rate sensitivity
	AvgDailyVolume float64 `json:"avg_daily_volume,omitempty"` // Units traded per day; 0 = unknown
	Counterparty   string  `json:"counterparty,omitempty"`     // Custodian or venue holding the position
}

// LastPrice returns the most recent price, or 0 for an empty history.
func (p Position) LastPrice() float64 {
	if len(p.PriceHistory) == 0 {
		return 0
	}
	return p.PriceHistory[len(p.PriceHistory)-1].Price
}

// MarketValue is quantity times last price.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.LastPrice()
}

// Prices returns the price history as a plain slice.
func (p Position) Prices() []float64 {
	prices := make([]float64, len(p.PriceHistory))
	for i, pt := range p.PriceHistory {
		prices[i] = pt.Price
	}
	return prices
}

// Portfolio is an ordered set of positions
type Portfolio struct {
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
}

// Validate checks structural invariants: at least one position, unique asset
// IDs, finite quantities, positive finite prices and finite market values.
func (p Portfolio) Validate() error {
	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: %w: no positions", ErrInvalidPortfolio, formulas.ErrInsufficientData)
	}

	seen := make(map[string]struct{}, len(p.Positions))
	for i, pos := range p.Positions {
		if pos.AssetID == "" {
			return fmt.Errorf("%w: position %d has no asset id", ErrInvalidPortfolio, i)
		}
		if _, dup := seen[pos.AssetID]; dup {
			return fmt.Errorf("%w: duplicate asset id %q", ErrInvalidPortfolio, pos.AssetID)
		}
		seen[pos.AssetID] = struct{}{}

		if math.IsNaN(pos.Quantity) || math.IsInf(pos.Quantity, 0) {
			return fmt.Errorf("%w: asset %q has non-finite quantity", ErrInvalidPortfolio, pos.AssetID)
		}
		for j, pt := range pos.PriceHistory {
			if !(pt.Price > 0) || math.IsInf(pt.Price, 0) {
				return fmt.Errorf("%w: asset %q has invalid price %v at index %d",
					ErrInvalidPortfolio, pos.AssetID, pt.Price, j)
			}
			if math.IsInf(pos.Quantity*pt.Price, 0) {
				return fmt.Errorf("%w: asset %q value overflows at index %d",
					ErrInvalidPortfolio, pos.AssetID, j)
			}
		}
	}

	if v := p.Value(); math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("%w: portfolio value %v is not finite", ErrInvalidPortfolio, v)
	}
	return nil
}

// AssetIDs returns the asset identifiers in portfolio order.
func (p Portfolio) AssetIDs() []string {
	ids := make([]string, len(p.Positions))
	for i, pos := range p.Positions {
		ids[i] = pos.AssetID
	}
	return ids
}

// Value is the current market value of the portfolio.
func (p Portfolio) Value() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.MarketValue()
	}
	return total
}

// Weights returns each position's share of portfolio value in portfolio order.
func (p Portfolio) Weights() ([]float64, error) {
	total := p.Value()
	if !(total > 0) {
		return nil, fmt.Errorf("%w: %w: portfolio value %v is not positive",
			ErrInvalidPortfolio, formulas.ErrInsufficientData, total)
	}
	weights := make([]float64, len(p.Positions))
	for i, pos := range p.Positions {
		weights[i] = pos.MarketValue() / total
	}
	return weights, nil
}

// ReturnSeries is an immutable chronological series of period returns
type ReturnSeries struct {
	AssetID string
	returns []float64
}

// NewReturnSeries copies returns into a new series.
func NewReturnSeries(assetID string, returns []float64) ReturnSeries {
	return ReturnSeries{AssetID: assetID, returns: append([]float64(nil), returns...)}
}

// Returns returns a copy of the underlying returns.
func (s ReturnSeries) Returns() []float64 {
	return append([]float64(nil), s.returns...)
}

// Len is the number of periods.
func (s ReturnSeries) Len() int {
	return len(s.returns)
}

// ReturnSet holds aligned per-asset series plus the portfolio aggregate
type ReturnSet struct {
	Assets    []ReturnSeries
	Portfolio ReturnSeries
	Periods   []time.Time // End timestamp of each return period
}

// AssetReturns returns every asset series as row slices, in portfolio order.
func (rs ReturnSet) AssetReturns() [][]float64 {
	rows := make([][]float64, len(rs.Assets))
	for i, s := range rs.Assets {
		rows[i] = s.Returns()
	}
	return rows
}

// Benchmark is an explicit market return series used for beta and alpha
type Benchmark struct {
	Name    string    `json:"name"`
	Returns []float64 `json:"returns"`
}

// IsEmpty reports whether no benchmark returns were supplied.
func (b Benchmark) IsEmpty() bool {
	return len(b.Returns) == 0
}

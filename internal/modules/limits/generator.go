// Package limits derives risk limits from a portfolio and a risk tolerance.
package limits

import (
	"fmt"
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Base limits at a multiplier of 1 (MEDIUM tolerance).
const (
	basePositionShare = 0.10 // Single position as share of value
	baseVaRShare      = 0.02 // One-period VaR as share of value
	baseDrawdown      = 0.10
	maxDrawdown       = 0.95
)

// multipliers scales every limit by tolerance. Strictly increasing with level.
var multipliers = map[domain.RiskLevel]float64{
	domain.RiskLevelLow:     0.5,
	domain.RiskLevelMedium:  1.0,
	domain.RiskLevelHigh:    1.5,
	domain.RiskLevelExtreme: 2.0,
}

// Multiplier returns the scaling factor for a risk level.
func Multiplier(level domain.RiskLevel) (float64, error) {
	m, ok := multipliers[level]
	if !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidRiskLevel, int(level))
	}
	return m, nil
}

// Generator computes RiskLimits. It holds no state.
type Generator struct{}

// NewGenerator creates a new limit generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate derives limits for portfolio at the given tolerance. The result
// depends only on its inputs, and every limit is non-decreasing in level.
func (g *Generator) Generate(portfolio domain.Portfolio, level domain.RiskLevel) (domain.RiskLimits, error) {
	m, err := Multiplier(level)
	if err != nil {
		return domain.RiskLimits{}, err
	}
	if len(portfolio.Positions) == 0 {
		return domain.RiskLimits{}, fmt.Errorf("%w: portfolio has no positions", formulas.ErrInsufficientData)
	}

	value := portfolio.Value()
	if !(value > 0) || math.IsInf(value, 0) {
		return domain.RiskLimits{}, fmt.Errorf("%w: portfolio value %v is not positive", formulas.ErrInsufficientData, value)
	}

	n := float64(len(portfolio.Positions))
	limits := domain.RiskLimits{
		RiskLevel:     level,
		Multiplier:    m,
		Position:      value * math.Min(1, basePositionShare*m),
		Exposure:      value * m,
		Concentration: math.Min(1, m/math.Sqrt(n)),
		VaR:           value * baseVaRShare * m,
		Drawdown:      math.Min(maxDrawdown, baseDrawdown*m),
		Leverage:      1 + m,
		PerAsset:      make(map[string]float64, len(portfolio.Positions)),
	}

	for _, pos := range portfolio.Positions {
		price := pos.LastPrice()
		if !(price > 0) {
			return domain.RiskLimits{}, fmt.Errorf("%w: asset %s has no price", formulas.ErrInsufficientData, pos.AssetID)
		}
		limits.PerAsset[pos.AssetID] = limits.Position / price
	}

	return limits, nil
}

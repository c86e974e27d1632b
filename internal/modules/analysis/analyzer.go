// Package analysis provides the structural risk views that sit next to the
// return-based metrics: concentration, liquidity, counterparty, systematic
// exposure and volatility decomposition.
package analysis

import (
	"fmt"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Config controls the liquidity model
type Config struct {
	// ParticipationRate is the share of average daily volume that can be sold per day.
	ParticipationRate float64
	// HorizonDays is the liquidation horizon beyond which a position counts as illiquid.
	HorizonDays float64
}

// DefaultConfig returns a 20% participation rate and a 10 day horizon.
func DefaultConfig() Config {
	return Config{ParticipationRate: 0.20, HorizonDays: 10}
}

// Analyzer computes the structural analyses for one configuration
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer. Both config values must be positive.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if !(cfg.ParticipationRate > 0 && cfg.ParticipationRate <= 1) {
		return nil, fmt.Errorf("participation rate %v must lie in (0,1]", cfg.ParticipationRate)
	}
	if !(cfg.HorizonDays > 0) {
		return nil, fmt.Errorf("liquidation horizon %v must be positive", cfg.HorizonDays)
	}
	return &Analyzer{cfg: cfg}, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// hhi is the Herfindahl-Hirschman index of shares that sum to 1.
func hhi(shares []float64) float64 {
	total := 0.0
	for _, s := range shares {
		total += s * s
	}
	return total
}

func requirePositive(value float64) error {
	if !(value > 0) {
		return fmt.Errorf("%w: portfolio value %v is not positive", formulas.ErrInsufficientData, value)
	}
	return nil
}

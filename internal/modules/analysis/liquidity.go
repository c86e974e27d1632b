package analysis

import (
	"github.com/aristath/sentinel-risk/internal/domain"
)

// PositionLiquidity is the liquidation profile of a single position.
// DaysToLiquidate is 0 and Illiquid true when volume is unknown.
type PositionLiquidity struct {
	AssetID         string  `json:"asset_id"`
	Value           float64 `json:"value"`
	DaysToLiquidate float64 `json:"days_to_liquidate"`
	Illiquidity     float64 `json:"illiquidity"` // 0 = liquid within a day, 1 = beyond horizon or unknown
	VolumeKnown     bool    `json:"volume_known"`
	Illiquid        bool    `json:"illiquid"`
}

// LiquidityReport summarises how quickly the portfolio can be sold.
type LiquidityReport struct {
	Positions []PositionLiquidity `json:"positions"`
	// WeightedDays is the value-weighted days to liquidate over positions with known volume.
	WeightedDays float64 `json:"weighted_days"`
	// IlliquidShare is the value share that cannot be sold within the horizon.
	IlliquidShare float64 `json:"illiquid_share"`
	// Score is the value-weighted illiquidity in [0,1].
	Score             float64 `json:"score"`
	ParticipationRate float64 `json:"participation_rate"`
	HorizonDays       float64 `json:"horizon_days"`
}

// Liquidity estimates days to liquidate each position at the configured
// participation rate of its average daily volume.
func (a *Analyzer) Liquidity(portfolio domain.Portfolio) (LiquidityReport, error) {
	total := portfolio.Value()
	if err := requirePositive(total); err != nil {
		return LiquidityReport{}, err
	}

	report := LiquidityReport{
		Positions:         make([]PositionLiquidity, len(portfolio.Positions)),
		ParticipationRate: a.cfg.ParticipationRate,
		HorizonDays:       a.cfg.HorizonDays,
	}

	knownValue := 0.0
	for i, pos := range portfolio.Positions {
		pl := a.positionLiquidity(pos)
		report.Positions[i] = pl

		share := pl.Value / total
		report.Score += share * pl.Illiquidity
		if pl.Illiquid {
			report.IlliquidShare += share
		}
		if pl.VolumeKnown {
			knownValue += pl.Value
			report.WeightedDays += pl.Value * pl.DaysToLiquidate
		}
	}
	if knownValue > 0 {
		report.WeightedDays /= knownValue
	}

	return report, nil
}

// Illiquidity returns the illiquidity score of every position in portfolio order.
func (a *Analyzer) Illiquidity(portfolio domain.Portfolio) []float64 {
	scores := make([]float64, len(portfolio.Positions))
	for i, pos := range portfolio.Positions {
		scores[i] = a.positionLiquidity(pos).Illiquidity
	}
	return scores
}

func (a *Analyzer) positionLiquidity(pos domain.Position) PositionLiquidity {
	pl := PositionLiquidity{AssetID: pos.AssetID, Value: pos.MarketValue()}

	if !(pos.AvgDailyVolume > 0) {
		pl.Illiquid = true
		pl.Illiquidity = 1
		return pl
	}

	qty := pos.Quantity
	if qty < 0 {
		qty = -qty
	}
	pl.VolumeKnown = true
	pl.DaysToLiquidate = qty / (a.cfg.ParticipationRate * pos.AvgDailyVolume)
	pl.Illiquid = pl.DaysToLiquidate > a.cfg.HorizonDays
	pl.Illiquidity = min(1, pl.DaysToLiquidate/a.cfg.HorizonDays)
	return pl
}

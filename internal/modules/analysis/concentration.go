package analysis

import (
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// AssetWeight is one asset's share of portfolio value
type AssetWeight struct {
	AssetID string  `json:"asset_id"`
	Weight  float64 `json:"weight"`
}

// ConcentrationReport describes how value is spread across assets.
type ConcentrationReport struct {
	TopAsset   string        `json:"top_asset"`
	Weights    []AssetWeight `json:"weights"` // Portfolio order
	HHI        float64       `json:"hhi"`
	EffectiveN float64       `json:"effective_n"` // 1/HHI
	TopWeight  float64       `json:"top_weight"`
	Top3Weight float64       `json:"top3_weight"`
}

// Concentration computes weights, HHI and top-N shares.
func (a *Analyzer) Concentration(portfolio domain.Portfolio) (ConcentrationReport, error) {
	weights, err := portfolio.Weights()
	if err != nil {
		return ConcentrationReport{}, err
	}

	report := ConcentrationReport{Weights: make([]AssetWeight, len(weights))}
	for i, w := range weights {
		report.Weights[i] = AssetWeight{AssetID: portfolio.Positions[i].AssetID, Weight: w}
	}

	report.HHI = hhi(weights)
	if report.HHI > 0 {
		report.EffectiveN = 1 / report.HHI
	}

	ranked := append([]AssetWeight(nil), report.Weights...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})
	report.TopAsset = ranked[0].AssetID
	report.TopWeight = ranked[0].Weight
	for i := 0; i < len(ranked) && i < 3; i++ {
		report.Top3Weight += ranked[i].Weight
	}

	return report, nil
}

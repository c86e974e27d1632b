package analysis

import (
	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/returns"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// AssetContribution is one asset's part of portfolio volatility
type AssetContribution struct {
	AssetID   string  `json:"asset_id"`
	Weight    float64 `json:"weight"`
	Marginal  float64 `json:"marginal"`  // dσ/dw
	Component float64 `json:"component"` // w · marginal
	Share     float64 `json:"share"`     // component / σ
}

// DecompositionReport attributes per-period portfolio volatility to assets.
// Components sum to Volatility.
type DecompositionReport struct {
	Assets     []AssetContribution `json:"assets"`
	Volatility float64             `json:"volatility"`
}

// Decomposition computes marginal and component volatility contributions.
func (a *Analyzer) Decomposition(portfolio domain.Portfolio, set domain.ReturnSet) (DecompositionReport, error) {
	profile, err := returns.NewProfile(portfolio, set)
	if err != nil {
		return DecompositionReport{}, err
	}
	cov, err := profile.Covariance()
	if err != nil {
		return DecompositionReport{}, err
	}

	marginal, component, vol, err := formulas.RiskContributions(profile.Weights, cov)
	if err != nil {
		return DecompositionReport{}, err
	}

	report := DecompositionReport{
		Assets:     make([]AssetContribution, len(profile.AssetIDs)),
		Volatility: vol,
	}
	for i, id := range profile.AssetIDs {
		report.Assets[i] = AssetContribution{
			AssetID:   id,
			Weight:    profile.Weights[i],
			Marginal:  marginal[i],
			Component: component[i],
			Share:     component[i] / vol,
		}
	}
	return report, nil
}

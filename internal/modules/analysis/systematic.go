package analysis

import (
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// SystematicReport splits portfolio variance into the part explained by the
// benchmark and the residual.
type SystematicReport struct {
	Benchmark               string  `json:"benchmark"`
	Beta                    float64 `json:"beta"`
	Alpha                   float64 `json:"alpha"`
	RSquared                float64 `json:"r_squared"`
	SystematicShare         float64 `json:"systematic_share"`
	IdiosyncraticShare      float64 `json:"idiosyncratic_share"`
	SystematicVolatility    float64 `json:"systematic_volatility"`    // Annualized
	IdiosyncraticVolatility float64 `json:"idiosyncratic_volatility"` // Annualized
}

// Systematic regresses the portfolio series on the benchmark.
func (a *Analyzer) Systematic(set domain.ReturnSet, benchmark domain.Benchmark) (SystematicReport, error) {
	returns := set.Portfolio.Returns()

	beta, alpha, err := formulas.BetaAlpha(returns, benchmark.Returns)
	if err != nil {
		return SystematicReport{}, err
	}
	r2, err := formulas.RSquared(returns, benchmark.Returns)
	if err != nil {
		return SystematicReport{}, err
	}

	total := formulas.Variance(returns)
	systematic := beta * beta * formulas.Variance(benchmark.Returns)
	idiosyncratic := math.Max(total-systematic, 0)

	report := SystematicReport{
		Benchmark: benchmark.Name,
		Beta:      beta,
		Alpha:     alpha,
		RSquared:  r2,
	}
	if total > 0 {
		report.SystematicShare = math.Min(systematic/total, 1)
		report.IdiosyncraticShare = 1 - report.SystematicShare
	}

	annualize := math.Sqrt(formulas.TradingDaysPerYear)
	report.SystematicVolatility = math.Sqrt(systematic) * annualize
	report.IdiosyncraticVolatility = math.Sqrt(idiosyncratic) * annualize
	return report, nil
}

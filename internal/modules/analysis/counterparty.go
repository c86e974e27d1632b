package analysis

import (
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// UnassignedCounterparty groups positions without a counterparty.
const UnassignedCounterparty = "unassigned"

// CounterpartyExposure is the value held with one counterparty
type CounterpartyExposure struct {
	Name   string   `json:"name"`
	Assets []string `json:"assets"`
	Value  float64  `json:"value"`
	Share  float64  `json:"share"`
}

// CounterpartyReport lists exposures ordered by value, largest first.
type CounterpartyReport struct {
	Exposures    []CounterpartyExposure `json:"exposures"`
	Largest      string                 `json:"largest"`
	LargestShare float64                `json:"largest_share"`
	HHI          float64                `json:"hhi"`
}

// Counterparty groups position value by custodian or venue.
func (a *Analyzer) Counterparty(portfolio domain.Portfolio) (CounterpartyReport, error) {
	total := portfolio.Value()
	if err := requirePositive(total); err != nil {
		return CounterpartyReport{}, err
	}

	byName := make(map[string]*CounterpartyExposure)
	for _, pos := range portfolio.Positions {
		name := pos.Counterparty
		if name == "" {
			name = UnassignedCounterparty
		}
		exp, ok := byName[name]
		if !ok {
			exp = &CounterpartyExposure{Name: name}
			byName[name] = exp
		}
		exp.Value += pos.MarketValue()
		exp.Assets = append(exp.Assets, pos.AssetID)
	}

	report := CounterpartyReport{Exposures: make([]CounterpartyExposure, 0, len(byName))}
	shares := make([]float64, 0, len(byName))
	for _, exp := range byName {
		exp.Share = exp.Value / total
		report.Exposures = append(report.Exposures, *exp)
		shares = append(shares, exp.Share)
	}

	sort.Slice(report.Exposures, func(i, j int) bool {
		if report.Exposures[i].Value != report.Exposures[j].Value {
			return report.Exposures[i].Value > report.Exposures[j].Value
		}
		return report.Exposures[i].Name < report.Exposures[j].Name
	})

	report.Largest = report.Exposures[0].Name
	report.LargestShare = report.Exposures[0].Share
	report.HHI = hhi(shares)
	return report, nil
}

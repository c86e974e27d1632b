// Package scenarios produces stressed one-period return distributions for a
// fixed set of scenario families.
package scenarios

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/analysis"
	"github.com/aristath/sentinel-risk/internal/modules/returns"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Scenario family names, in evaluation order.
const (
	FamilyMarketCrash          = "market_crash"
	FamilyInterestRateShock    = "interest_rate_shock"
	FamilyVolatilitySpike      = "volatility_spike"
	FamilyLiquidityCrisis      = "liquidity_crisis"
	FamilyCorrelationBreakdown = "correlation_breakdown"
)

// tailProbability is the lower tail used for VaR95 and ES95.
const tailProbability = 0.05

// Band is a set of quantiles of stressed portfolio value.
type Band struct {
	P05 float64 `json:"p05"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
}

// Distribution is a normal one-period distribution of portfolio return under
// stress. Mean and StdDev are returns; the other fields are in portfolio currency
// with losses negative.
type Distribution struct {
	Band         Band    `json:"band"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	ExpectedLoss float64 `json:"expected_loss"`
	VaR95        float64 `json:"var_95"`
	ES95         float64 `json:"es_95"`
}

// Shock is how a family moves the base distribution.
type Shock struct {
	MeanShift     float64 `json:"mean_shift"`
	VolMultiplier float64 `json:"vol_multiplier"`
	CorrShift     float64 `json:"corr_shift"`
}

// ScenarioOutcome is the result of one family. Err is set instead of
// Distribution when the family could not be evaluated.
type ScenarioOutcome struct {
	Distribution *Distribution `json:"distribution,omitempty"`
	Shock        *Shock        `json:"shock,omitempty"`
	Err          error         `json:"-"`
	Family       string        `json:"family"`
	Error        string        `json:"error,omitempty"`
	Magnitude    float64       `json:"magnitude"`
}

// Failed reports whether the family produced an error.
func (o ScenarioOutcome) Failed() bool {
	return o.Err != nil
}

// Inputs is everything a family needs to build its shock.
type Inputs struct {
	Profile     *returns.Profile
	Illiquidity []float64 // Per asset, portfolio order
	BaseMean    float64   // Mean per-period portfolio return
}

// ShockFunc maps a magnitude to a shock profile.
type ShockFunc func(in Inputs, magnitude float64) (Shock, error)

type family struct {
	name  string
	shock ShockFunc
}

var families = []family{
	{FamilyMarketCrash, marketCrash},
	{FamilyInterestRateShock, interestRateShock},
	{FamilyVolatilitySpike, volatilitySpike},
	{FamilyLiquidityCrisis, liquidityCrisis},
	{FamilyCorrelationBreakdown, correlationBreakdown},
}

// Families returns the family names in evaluation order.
func Families() []string {
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.name
	}
	return names
}

// DefaultMagnitudes returns the magnitude used for each family when none is configured.
func DefaultMagnitudes() map[string]float64 {
	return map[string]float64{
		FamilyMarketCrash:          0.30,
		FamilyInterestRateShock:    0.02,
		FamilyVolatilitySpike:      2.0,
		FamilyLiquidityCrisis:      0.15,
		FamilyCorrelationBreakdown: 0.5,
	}
}

// Simulator evaluates every family against a portfolio
type Simulator struct {
	magnitudes map[string]float64
	analyzer   *analysis.Analyzer
}

// NewSimulator creates a simulator. magnitudes must name only known families;
// families missing from it use DefaultMagnitudes.
func NewSimulator(magnitudes map[string]float64, analyzer *analysis.Analyzer) (*Simulator, error) {
	merged := DefaultMagnitudes()
	for name, m := range magnitudes {
		if _, ok := merged[name]; !ok {
			return nil, fmt.Errorf("%w: unknown scenario family %q", formulas.ErrInvalidScenario, name)
		}
		merged[name] = m
	}
	return &Simulator{magnitudes: merged, analyzer: analyzer}, nil
}

// Magnitudes returns a copy of the configured magnitudes.
func (s *Simulator) Magnitudes() map[string]float64 {
	out := make(map[string]float64, len(s.magnitudes))
	for k, v := range s.magnitudes {
		out[k] = v
	}
	return out
}

// Simulate evaluates all families in order. overrides replaces configured
// magnitudes for this call only. A family with an invalid magnitude yields an
// error outcome; an error is returned only when the inputs cannot be built.
func (s *Simulator) Simulate(portfolio domain.Portfolio, set domain.ReturnSet, overrides map[string]float64) ([]ScenarioOutcome, error) {
	for name := range overrides {
		if _, ok := s.magnitudes[name]; !ok {
			return nil, fmt.Errorf("%w: unknown scenario family %q", formulas.ErrInvalidScenario, name)
		}
	}

	profile, err := returns.NewProfile(portfolio, set)
	if err != nil {
		return nil, fmt.Errorf("scenario profile: %w", err)
	}
	in := Inputs{
		Profile:     profile,
		Illiquidity: s.analyzer.Illiquidity(portfolio),
		BaseMean:    formulas.Mean(set.Portfolio.Returns()),
	}

	outcomes := make([]ScenarioOutcome, len(families))
	for i, f := range families {
		magnitude := s.magnitudes[f.name]
		if m, ok := overrides[f.name]; ok {
			magnitude = m
		}
		outcomes[i] = evaluate(f, in, magnitude)
	}
	return outcomes, nil
}

func evaluate(f family, in Inputs, magnitude float64) ScenarioOutcome {
	outcome := ScenarioOutcome{Family: f.name, Magnitude: magnitude}

	fail := func(err error) ScenarioOutcome {
		outcome.Err = fmt.Errorf("scenario %s: %w", f.name, err)
		outcome.Error = outcome.Err.Error()
		return outcome
	}

	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return fail(fmt.Errorf("%w: magnitude is not finite", formulas.ErrInvalidScenario))
	}
	shock, err := f.shock(in, magnitude)
	if err != nil {
		return fail(err)
	}
	dist, err := Stress(in, shock)
	if err != nil {
		return fail(err)
	}

	outcome.Shock = &shock
	outcome.Distribution = &dist
	return outcome
}

// Stress applies a shock to the base distribution and summarises the result.
func Stress(in Inputs, shock Shock) (Distribution, error) {
	sigma, err := in.Profile.StressedVolatility(shock.VolMultiplier, shock.CorrShift)
	if err != nil {
		return Distribution{}, err
	}
	mean := in.BaseMean + shock.MeanShift
	value := in.Profile.Value

	z := distuv.UnitNormal.Quantile(tailProbability)
	q := func(p float64) float64 {
		return mean + sigma*distuv.UnitNormal.Quantile(p)
	}
	// Expected shortfall of a normal: μ - σ·φ(z)/α
	es := mean - sigma*distuv.UnitNormal.Prob(z)/tailProbability

	return Distribution{
		Mean:         mean,
		StdDev:       sigma,
		ExpectedLoss: value * mean,
		VaR95:        value * q(tailProbability),
		ES95:         value * es,
		Band: Band{
			P05: value * (1 + q(0.05)),
			P50: value * (1 + q(0.50)),
			P95: value * (1 + q(0.95)),
		},
	}, nil
}

// marketCrash: price drop m in (0,1) with volatility and correlation rising with m.
func marketCrash(_ Inputs, m float64) (Shock, error) {
	if !(m > 0 && m < 1) {
		return Shock{}, fmt.Errorf("%w: crash magnitude %v must lie in (0,1)", formulas.ErrInvalidScenario, m)
	}
	return Shock{MeanShift: -m, VolMultiplier: 1 + 2.5*m, CorrShift: 0.75 * m}, nil
}

// interestRateShock: parallel rate move, priced through position durations.
func interestRateShock(in Inputs, m float64) (Shock, error) {
	if math.Abs(m) > 0.5 {
		return Shock{}, fmt.Errorf("%w: rate move %v outside [-0.5, 0.5]", formulas.ErrInvalidScenario, m)
	}
	return Shock{MeanShift: -in.Profile.DurationExposure(m, 0), VolMultiplier: 1}, nil
}

// volatilitySpike: volatilities scaled by m with correlations rising as m grows past 1.
func volatilitySpike(_ Inputs, m float64) (Shock, error) {
	if !(m > 0) {
		return Shock{}, fmt.Errorf("%w: volatility multiplier %v must be positive", formulas.ErrInvalidScenario, m)
	}
	return Shock{VolMultiplier: m, CorrShift: 0.4 * (m - 1)}, nil
}

// liquidityCrisis: fire-sale haircut m applied in proportion to illiquidity.
func liquidityCrisis(in Inputs, m float64) (Shock, error) {
	if !(m >= 0 && m < 1) {
		return Shock{}, fmt.Errorf("%w: liquidity haircut %v must lie in [0,1)", formulas.ErrInvalidScenario, m)
	}
	if len(in.Illiquidity) != len(in.Profile.Weights) {
		return Shock{}, fmt.Errorf("%w: %d illiquidity scores for %d assets",
			formulas.ErrDimensionMismatch, len(in.Illiquidity), len(in.Profile.Weights))
	}
	haircut := 0.0
	for i, w := range in.Profile.Weights {
		haircut += w * in.Illiquidity[i]
	}
	return Shock{MeanShift: -m * haircut, VolMultiplier: 1 + m}, nil
}

// correlationBreakdown: every pairwise correlation moved by m.
func correlationBreakdown(_ Inputs, m float64) (Shock, error) {
	if m < -2 || m > 2 {
		return Shock{}, fmt.Errorf("%w: correlation shift %v outside [-2, 2]", formulas.ErrInvalidScenario, m)
	}
	return Shock{VolMultiplier: 1, CorrShift: m}, nil
}

package stress

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/returns"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// tailConfidence sets the quantile used to turn a volatility increase into a loss.
const tailConfidence = 0.99

// StressResult is the outcome of one scenario. Err is set instead of the
// impact fields when the scenario could not be applied.
type StressResult struct {
	ImpactValue    decimal.Decimal     `json:"impact_value"`
	StressedValue  decimal.Decimal     `json:"stressed_value"`
	Err            error               `json:"-"`
	Scenario       string              `json:"scenario"`
	Kind           domain.ScenarioKind `json:"kind"`
	Error          string              `json:"error,omitempty"`
	ImpactFraction float64             `json:"impact_fraction"`
}

// Failed reports whether the scenario produced an error.
func (r StressResult) Failed() bool {
	return r.Err != nil
}

// Engine runs every registered scenario against a portfolio
type Engine struct {
	registry *Registry
}

// NewEngine creates a stress test engine over registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the scenarios the engine runs.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Run applies every scenario in registry order. A scenario with bad
// parameters yields an error entry and does not stop the others; an error is
// returned only when the portfolio itself cannot be profiled.
func (e *Engine) Run(portfolio domain.Portfolio, set domain.ReturnSet) ([]StressResult, error) {
	profile, err := returns.NewProfile(portfolio, set)
	if err != nil {
		return nil, fmt.Errorf("stress profile: %w", err)
	}

	scenarios := e.registry.List()
	results := make([]StressResult, len(scenarios))
	for i, s := range scenarios {
		results[i] = Apply(s, profile)
	}
	return results, nil
}

// Apply evaluates a single scenario against a profile.
func Apply(s domain.StressScenario, profile *returns.Profile) StressResult {
	result := StressResult{Scenario: s.Name, Kind: s.Kind}

	impact, err := impactFraction(s, profile)
	if err != nil {
		result.Err = fmt.Errorf("scenario %s: %w", s.Name, err)
		result.Error = result.Err.Error()
		return result
	}

	// A long portfolio cannot lose more than its value.
	impact = math.Max(impact, -1)

	value := decimal.NewFromFloat(profile.Value)
	result.ImpactFraction = impact
	result.ImpactValue = value.Mul(decimal.NewFromFloat(impact)).Round(2)
	result.StressedValue = value.Round(2).Add(result.ImpactValue)
	return result
}

func impactFraction(s domain.StressScenario, profile *returns.Profile) (float64, error) {
	switch s.Kind {
	case domain.ScenarioKindMarket:
		move, err := required(s, domain.ParamMarketChange)
		if err != nil {
			return 0, err
		}
		if move <= -1 {
			return 0, fmt.Errorf("%w: %s %v must be greater than -1", formulas.ErrInvalidScenario, domain.ParamMarketChange, move)
		}
		volMult, err := optional(s, domain.ParamVolatilityChange, 1)
		if err != nil {
			return 0, err
		}
		corrShift, err := optional(s, domain.ParamCorrelationChange, 0)
		if err != nil {
			return 0, err
		}
		tail, err := tailAddOn(profile, volMult, corrShift)
		if err != nil {
			return 0, err
		}
		return move + tail, nil

	case domain.ScenarioKindRate:
		rate, err := required(s, domain.ParamRateChange)
		if err != nil {
			return 0, err
		}
		steepening, err := optional(s, domain.ParamCurveSteepening, 0)
		if err != nil {
			return 0, err
		}
		return -profile.DurationExposure(rate, steepening), nil

	case domain.ScenarioKindVolatility:
		volMult, err := required(s, domain.ParamVolChange)
		if err != nil {
			return 0, err
		}
		corrShift, err := optional(s, domain.ParamCorrelationChange, 0)
		if err != nil {
			return 0, err
		}
		return tailAddOn(profile, volMult, corrShift)

	default:
		return 0, fmt.Errorf("%w: unknown kind %q", formulas.ErrInvalidScenario, s.Kind)
	}
}

// tailAddOn is the extra loss at the tail quantile caused by moving from the
// current portfolio volatility to the stressed one: -z·(σ' - σ).
func tailAddOn(profile *returns.Profile, volMult, corrShift float64) (float64, error) {
	if volMult <= 0 {
		return 0, fmt.Errorf("%w: volatility multiplier %v must be positive", formulas.ErrInvalidScenario, volMult)
	}
	if corrShift < -2 || corrShift > 2 {
		return 0, fmt.Errorf("%w: correlation shift %v outside [-2, 2]", formulas.ErrInvalidScenario, corrShift)
	}

	base, err := profile.Volatility()
	if err != nil {
		return 0, err
	}
	stressed, err := profile.StressedVolatility(volMult, corrShift)
	if err != nil {
		return 0, err
	}

	z := distuv.UnitNormal.Quantile(tailConfidence)
	return -z * (stressed - base), nil
}

func required(s domain.StressScenario, key string) (float64, error) {
	v, ok := s.Param(key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", formulas.ErrInvalidScenario, key)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", formulas.ErrInvalidScenario, key)
	}
	return v, nil
}

func optional(s domain.StressScenario, key string, fallback float64) (float64, error) {
	if _, ok := s.Param(key); !ok {
		return fallback, nil
	}
	return required(s, key)
}

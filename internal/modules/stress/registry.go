// Package stress applies predefined shock scenarios to a portfolio.
package stress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aristath/sentinel-risk/internal/domain"
)

var (
	// ErrScenarioNotFound is returned by Registry.Get for an unknown name.
	ErrScenarioNotFound = errors.New("stress scenario not found")
	// ErrDuplicateScenario is returned when registering an existing name.
	ErrDuplicateScenario = errors.New("stress scenario already registered")
)

// Registry is an ordered collection of stress scenarios.
// Scenarios run in registration order.
type Registry struct {
	scenarios []domain.StressScenario
	index     map[string]int
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// DefaultRegistry returns a registry holding the three standard scenarios.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range DefaultScenarios() {
		// Names are unique by construction.
		_ = r.Register(s)
	}
	return r
}

// DefaultScenarios returns the standard scenario set in its fixed order.
func DefaultScenarios() []domain.StressScenario {
	return []domain.StressScenario{
		{
			Name:        "market_crash",
			Kind:        domain.ScenarioKindMarket,
			Description: "Broad 40% equity sell-off with doubled volatility and converging correlations",
			Params: map[string]float64{
				domain.ParamMarketChange:      -0.40,
				domain.ParamVolatilityChange:  2.0,
				domain.ParamCorrelationChange: 0.3,
			},
		},
		{
			Name:        "rate_shock",
			Kind:        domain.ScenarioKindRate,
			Description: "Parallel +200bp rate move with 100bp curve steepening",
			Params: map[string]float64{
				domain.ParamRateChange:      0.02,
				domain.ParamCurveSteepening: 0.01,
			},
		},
		{
			Name:        "volatility_shock",
			Kind:        domain.ScenarioKindVolatility,
			Description: "Volatility up 50% with higher cross-asset correlation",
			Params: map[string]float64{
				domain.ParamVolChange:         1.5,
				domain.ParamCorrelationChange: 0.2,
			},
		},
	}
}

// Register appends a scenario. Names must be unique and non-empty.
func (r *Registry) Register(s domain.StressScenario) error {
	if s.Name == "" {
		return fmt.Errorf("stress scenario has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[s.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateScenario, s.Name)
	}
	r.index[s.Name] = len(r.scenarios)
	r.scenarios = append(r.scenarios, s.Clone())
	return nil
}

// Get retrieves a scenario by name.
func (r *Registry) Get(name string) (domain.StressScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return domain.StressScenario{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}
	return r.scenarios[i].Clone(), nil
}

// List returns copies of all scenarios in registration order.
func (r *Registry) List() []domain.StressScenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StressScenario, len(r.scenarios))
	for i, s := range r.scenarios {
		out[i] = s.Clone()
	}
	return out
}

// Len returns the number of registered scenarios.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenarios)
}

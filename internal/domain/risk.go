package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRiskLevel is returned for a risk level outside LOW..EXTREME.
var ErrInvalidRiskLevel = errors.New("invalid risk level")

// RiskLevel is the caller's risk tolerance. Levels are ordered LOW < MEDIUM < HIGH < EXTREME.
type RiskLevel int

const (
	RiskLevelLow RiskLevel = iota
	RiskLevelMedium
	RiskLevelHigh
	RiskLevelExtreme
)

var riskLevelNames = [...]string{"LOW", "MEDIUM", "HIGH", "EXTREME"}

// RiskLevels returns every level in ascending order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelExtreme}
}

// Valid reports whether l is one of the defined levels.
func (l RiskLevel) Valid() bool {
	return l >= RiskLevelLow && l <= RiskLevelExtreme
}

func (l RiskLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskLevelNames[l]
}

// ParseRiskLevel parses a level name, case-insensitively.
func ParseRiskLevel(name string) (RiskLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range riskLevelNames {
		if n == upper {
			return RiskLevel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRiskLevel, name)
}

// MarshalText implements encoding.TextMarshaler.
func (l RiskLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRiskLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *RiskLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// CorrelationMatrix is a labelled square matrix of pairwise correlations.
// Rows and columns follow Assets order.
type CorrelationMatrix struct {
	Assets []string    `json:"assets"`
	Values [][]float64 `json:"values"`
}

// Get returns the correlation between two assets.
func (m CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, id := range m.Assets {
		if id == a {
			i = k
		}
		if id == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// RiskMetrics holds the risk measures of the portfolio return series.
// VaR and CVaR are return thresholds (negative = loss); MaxDrawdown is <= 0.
// Failures names each metric that could not be computed; its field stays zero.
type RiskMetrics struct {
	Failures             map[string]string `json:"failures,omitempty"`
	Correlation          CorrelationMatrix `json:"correlation"`
	VaR                  float64           `json:"var"`
	HistoricalVaR        float64           `json:"historical_var"`
	ParametricVaR        float64           `json:"parametric_var"`
	CVaR                 float64           `json:"cvar"`
	SharpeRatio          float64           `json:"sharpe_ratio"`
	SortinoRatio         float64           `json:"sortino_ratio"`
	MaxDrawdown          float64           `json:"max_drawdown"`
	Beta                 float64           `json:"beta"`
	Alpha                float64           `json:"alpha"`
	AnnualizedVolatility float64           `json:"annualized_volatility"`
	Confidence           float64           `json:"confidence"`
	Observations         int               `json:"observations"`
}

// ScenarioKind classifies a stress scenario by the shock it applies
type ScenarioKind string

const (
	ScenarioKindMarket     ScenarioKind = "market"
	ScenarioKindRate       ScenarioKind = "rate"
	ScenarioKindVolatility ScenarioKind = "volatility"
)

// Stress scenario parameter keys
const (
	ParamMarketChange      = "market_change"
	ParamVolatilityChange  = "volatility_change"
	ParamCorrelationChange = "correlation_change"
	ParamRateChange        = "rate_change"
	ParamCurveSteepening   = "curve_steepening"
	ParamVolChange         = "vol_change"
)

// StressScenario is a named, tagged set of shock parameters.
type StressScenario struct {
	Params      map[string]float64 `json:"params"`
	Name        string             `json:"name"`
	Kind        ScenarioKind       `json:"kind"`
	Description string             `json:"description"`
}

// Param returns a parameter value and whether it is present.
func (s StressScenario) Param(key string) (float64, bool) {
	v, ok := s.Params[key]
	return v, ok
}

// Clone returns a deep copy so registries can hand out records safely.
func (s StressScenario) Clone() StressScenario {
	params := make(map[string]float64, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	s.Params = params
	return s
}

// RiskLimits are tolerance-dependent upper bounds. Larger values are looser.
type RiskLimits struct {
	PerAsset      map[string]float64 `json:"per_asset"` // Max quantity per asset
	RiskLevel     RiskLevel          `json:"risk_level"`
	Multiplier    float64            `json:"multiplier"`
	Position      float64            `json:"position"`      // Max value of a single position
	Exposure      float64            `json:"exposure"`      // Max gross exposure
	Concentration float64            `json:"concentration"` // Max weight of a single asset
	VaR           float64            `json:"var"`           // Max one-period VaR, in currency
	Drawdown      float64            `json:"drawdown"`      // Max tolerated drawdown fraction
	Leverage      float64            `json:"leverage"`      // Max gross/net ratio
}

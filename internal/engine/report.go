package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/analysis"
	"github.com/aristath/sentinel-risk/internal/modules/scenarios"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
)

// Branch names, as reported to observers and in BranchResult.Name.
const (
	BranchMetrics       = "metrics"
	BranchStressTests   = "stress_tests"
	BranchScenarios     = "scenarios"
	BranchConcentration = "concentration"
	BranchLiquidity     = "liquidity"
	BranchCounterparty  = "counterparty"
	BranchSystematic    = "systematic"
	BranchDecomposition = "decomposition"
)

// BranchResult is the tagged outcome of one analysis branch. OK is true when
// Err is nil. A failed branch keeps whatever partial Value it produced, so a
// metrics branch that lost only beta still reports VaR and Sharpe.
type BranchResult[T any] struct {
	Value      T       `json:"value"`
	Err        error   `json:"-"`
	Name       string  `json:"name"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	OK         bool    `json:"ok"`
}

func (b *BranchResult[T]) complete(name string, value T, err error, d time.Duration) {
	b.Name = name
	b.DurationMS = float64(d) / float64(time.Millisecond)
	b.Value = value
	if err != nil {
		b.Err = err
		b.Error = err.Error()
		return
	}
	b.OK = true
}

// RiskReport is the result of one Analyze call. It is owned by the caller.
type RiskReport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	PortfolioName  string          `json:"portfolio_name"`
	Benchmark      string          `json:"benchmark,omitempty"`
	Policy         FailurePolicy   `json:"policy"`
	ID             uuid.UUID       `json:"id"`

	Metrics       BranchResult[domain.RiskMetrics]           `json:"metrics"`
	StressTests   BranchResult[[]stress.StressResult]        `json:"stress_tests"`
	Scenarios     BranchResult[[]scenarios.ScenarioOutcome]  `json:"scenarios"`
	Concentration BranchResult[analysis.ConcentrationReport] `json:"concentration"`
	Liquidity     BranchResult[analysis.LiquidityReport]     `json:"liquidity"`
	Counterparty  BranchResult[analysis.CounterpartyReport]  `json:"counterparty"`
	Systematic    BranchResult[analysis.SystematicReport]    `json:"systematic"`
	Decomposition BranchResult[analysis.DecompositionReport] `json:"decomposition"`

	DurationMS float64 `json:"duration_ms"`
}

type branchErr struct {
	name string
	err  error
}

// branchErrors returns every branch name paired with its error, in report order.
func (r *RiskReport) branchErrors() []branchErr {
	return []branchErr{
		{BranchMetrics, r.Metrics.Err},
		{BranchStressTests, r.StressTests.Err},
		{BranchScenarios, r.Scenarios.Err},
		{BranchConcentration, r.Concentration.Err},
		{BranchLiquidity, r.Liquidity.Err},
		{BranchCounterparty, r.Counterparty.Err},
		{BranchSystematic, r.Systematic.Err},
		{BranchDecomposition, r.Decomposition.Err},
	}
}

// FailedBranches lists the names of failed branches in report order.
func (r *RiskReport) FailedBranches() []string {
	var failed []string
	for _, b := range r.branchErrors() {
		if b.err != nil {
			failed = append(failed, b.name)
		}
	}
	return failed
}

// Err combines every branch error in report order, or returns nil.
func (r *RiskReport) Err() error {
	var errs error
	for _, b := range r.branchErrors() {
		if b.err != nil {
			errs = multierr.Append(errs, &BranchError{Branch: b.name, Err: b.err})
		}
	}
	return errs
}

// BranchError names the branch an error came from.
type BranchError struct {
	Branch string
	Err    error
}

func (e *BranchError) Error() string {
	return e.Branch + ": " + e.Err.Error()
}

func (e *BranchError) Unwrap() error {
	return e.Err
}

// Package engine runs every risk analysis over a portfolio concurrently and
// joins the results into one report.
package engine

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/analysis"
	"github.com/aristath/sentinel-risk/internal/modules/limits"
	"github.com/aristath/sentinel-risk/internal/modules/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/returns"
	"github.com/aristath/sentinel-risk/internal/modules/scenarios"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/observability"
)

var (
	// ErrAnalysisFailed wraps the combined branch errors under PolicyFailFast.
	ErrAnalysisFailed = errors.New("risk analysis failed")
	// ErrBranchPanic marks a branch that panicked.
	ErrBranchPanic = errors.New("branch panicked")
	// ErrInvalidPolicy is returned for an unknown failure policy.
	ErrInvalidPolicy = errors.New("invalid failure policy")
)

// FailurePolicy decides how branch failures surface to the caller
type FailurePolicy string

const (
	// PolicyPartial returns the report with per-branch errors and a nil error.
	PolicyPartial FailurePolicy = "partial"
	// PolicyFailFast returns the report together with the combined branch errors.
	PolicyFailFast FailurePolicy = "fail_fast"
)

// ParsePolicy parses a policy name. The empty string is PolicyPartial.
func ParsePolicy(name string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyPartial:
		return PolicyPartial, nil
	case PolicyFailFast:
		return PolicyFailFast, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Observer     observability.Observer
	Registry     *stress.Registry
	Magnitudes   map[string]float64
	Policy       FailurePolicy
	Analysis     analysis.Config
	Confidence   float64
	RiskFreeRate float64 // Per period
	Workers      int
}

// AnalysisRequest is one analyze call. Policy and Magnitudes override the
// engine defaults for this call only.
type AnalysisRequest struct {
	Magnitudes map[string]float64 `json:"magnitudes,omitempty"`
	Benchmark  domain.Benchmark   `json:"benchmark"`
	Policy     FailurePolicy      `json:"policy,omitempty"`
	Portfolio  domain.Portfolio   `json:"portfolio"`
}

// Engine is the risk report aggregator
type Engine struct {
	observer   observability.Observer
	extractor  *returns.Extractor
	calculator *metrics.Calculator
	stress     *stress.Engine
	simulator  *scenarios.Simulator
	analyzer   *analysis.Analyzer
	limits     *limits.Generator
	policy     FailurePolicy
	workers    int
}

// DefaultConfidence is the VaR and CVaR confidence level used when none is set.
const DefaultConfidence = 0.99

// DefaultWorkers is the number of logical CPUs, falling back to GOMAXPROCS.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// New creates an engine from options.
func New(opts Options) (*Engine, error) {
	if opts.Confidence == 0 {
		opts.Confidence = DefaultConfidence
	}
	if !(opts.Confidence > 0 && opts.Confidence < 1) {
		return nil, fmt.Errorf("confidence %v must lie in (0,1)", opts.Confidence)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.Registry == nil {
		opts.Registry = stress.DefaultRegistry()
	}
	if opts.Observer == nil {
		opts.Observer = observability.Nop{}
	}
	if opts.Analysis == (analysis.Config{}) {
		opts.Analysis = analysis.DefaultConfig()
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	analyzer, err := analysis.NewAnalyzer(opts.Analysis)
	if err != nil {
		return nil, err
	}
	simulator, err := scenarios.NewSimulator(opts.Magnitudes, analyzer)
	if err != nil {
		return nil, err
	}

	return &Engine{
		observer:   opts.Observer,
		extractor:  returns.NewExtractor(),
		calculator: metrics.NewCalculator(opts.Confidence, opts.RiskFreeRate),
		stress:     stress.NewEngine(opts.Registry),
		simulator:  simulator,
		analyzer:   analyzer,
		limits:     limits.NewGenerator(),
		policy:     policy,
		workers:    opts.Workers,
	}, nil
}

// Workers returns the branch concurrency limit.
func (e *Engine) Workers() int {
	return e.workers
}

// Confidence returns the VaR and CVaR confidence level.
func (e *Engine) Confidence() float64 {
	return e.calculator.Confidence()
}

// Scenarios lists the stress scenarios every report runs.
func (e *Engine) Scenarios() []domain.StressScenario {
	return e.stress.Registry().List()
}

// GenerateRiskLimits derives limits for a risk tolerance. Independent of Analyze.
func (e *Engine) GenerateRiskLimits(portfolio domain.Portfolio, level domain.RiskLevel) (domain.RiskLimits, error) {
	if err := portfolio.Validate(); err != nil {
		return domain.RiskLimits{}, err
	}
	return e.limits.Generate(portfolio, level)
}

// Analyze validates the portfolio, extracts returns and runs every branch
// concurrently. Input errors return a nil report. Branch failures never
// cancel other branches; under PolicyFailFast they are also returned as an
// error wrapping ErrAnalysisFailed, alongside the full report.
func (e *Engine) Analyze(req AnalysisRequest) (*RiskReport, error) {
	start := time.Now()

	policy := e.policy
	if req.Policy != "" {
		p, err := ParsePolicy(string(req.Policy))
		if err != nil {
			return nil, err
		}
		policy = p
	}

	if err := req.Portfolio.Validate(); err != nil {
		return nil, err
	}
	set, err := e.extractor.Extract(req.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("extract returns: %w", err)
	}

	report := &RiskReport{
		ID:             uuid.New(),
		PortfolioName:  req.Portfolio.Name,
		GeneratedAt:    start.UTC(),
		PortfolioValue: decimal.NewFromFloat(req.Portfolio.Value()).Round(2),
		Benchmark:      req.Benchmark.Name,
		Policy:         policy,
	}

	p, bench := req.Portfolio, req.Benchmark

	var g errgroup.Group
	g.SetLimit(e.workers)

	runBranch(&g, e.observer, &report.Metrics, BranchMetrics, func() (domain.RiskMetrics, error) {
		return e.calculator.Calculate(set, bench)
	})
	runBranch(&g, e.observer, &report.StressTests, BranchStressTests, func() ([]stress.StressResult, error) {
		return e.stress.Run(p, set)
	})
	runBranch(&g, e.observer, &report.Scenarios, BranchScenarios, func() ([]scenarios.ScenarioOutcome, error) {
		return e.simulator.Simulate(p, set, req.Magnitudes)
	})
	runBranch(&g, e.observer, &report.Concentration, BranchConcentration, func() (analysis.ConcentrationReport, error) {
		return e.analyzer.Concentration(p)
	})
	runBranch(&g, e.observer, &report.Liquidity, BranchLiquidity, func() (analysis.LiquidityReport, error) {
		return e.analyzer.Liquidity(p)
	})
	runBranch(&g, e.observer, &report.Counterparty, BranchCounterparty, func() (analysis.CounterpartyReport, error) {
		return e.analyzer.Counterparty(p)
	})
	runBranch(&g, e.observer, &report.Systematic, BranchSystematic, func() (analysis.SystematicReport, error) {
		return e.analyzer.Systematic(set, bench)
	})
	runBranch(&g, e.observer, &report.Decomposition, BranchDecomposition, func() (analysis.DecompositionReport, error) {
		return e.analyzer.Decomposition(p, set)
	})

	// Branches never return errors to the group.
	_ = g.Wait()

	elapsed := time.Since(start)
	report.DurationMS = float64(elapsed) / float64(time.Millisecond)
	e.observer.ReportCompleted(report.PortfolioName, elapsed, len(report.FailedBranches()))

	if policy == PolicyFailFast {
		if errs := report.Err(); errs != nil {
			return report, fmt.Errorf("%w: %w", ErrAnalysisFailed, errs)
		}
	}
	return report, nil
}

// runBranch schedules fn on g and stores its outcome in slot. Each branch
// writes only its own slot, so no locking is needed.
func runBranch[T any](g *errgroup.Group, obs observability.Observer, slot *BranchResult[T], name string, fn func() (T, error)) {
	g.Go(func() error {
		obs.BranchStarted(name)
		start := time.Now()

		value, err := safeCall(fn)

		elapsed := time.Since(start)
		slot.complete(name, value, err, elapsed)
		obs.BranchFinished(name, elapsed, err)
		return nil
	})
}

func safeCall[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%w: %v", ErrBranchPanic, r)
		}
	}()
	return fn()
}

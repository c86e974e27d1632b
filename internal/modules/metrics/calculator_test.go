package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

var goldenReturns = []float64{-0.05, 0.02, -0.03, 0.04, -0.01}

func returnSet(portfolio []float64, assets ...[]float64) domain.ReturnSet {
	set := domain.ReturnSet{Portfolio: domain.NewReturnSeries("portfolio", portfolio)}
	for i, a := range assets {
		set.Assets = append(set.Assets, domain.NewReturnSeries(string(rune('A'+i)), a))
	}
	return set
}

func TestCalculate_Golden(t *testing.T) {
	benchmark := domain.Benchmark{Name: "index", Returns: []float64{-0.04, 0.01, -0.02, 0.03, 0.00}}
	set := returnSet(goldenReturns, goldenReturns, benchmark.Returns)

	m, err := NewCalculator(0.8, 0).Calculate(set, benchmark)
	require.NoError(t, err)

	assert.InDelta(t, -0.05, m.VaR, 1e-12)
	assert.InDelta(t, -0.05, m.CVaR, 1e-12)
	assert.InDelta(t, -0.05, m.HistoricalVaR, 1e-12)
	assert.InDelta(t, -0.036693223683169164, m.ParametricVaR, 1e-12)
	assert.InDelta(t, -0.16452254913212452, m.SharpeRatio, 1e-12)
	assert.InDelta(t, -0.3, m.SortinoRatio, 1e-12)
	assert.LessOrEqual(t, m.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, m.CVaR, m.VaR)
	assert.Equal(t, 0.8, m.Confidence)
	assert.Equal(t, 5, m.Observations)

	beta, alpha, err := formulas.BetaAlpha(goldenReturns, benchmark.Returns)
	require.NoError(t, err)
	assert.Equal(t, beta, m.Beta)
	assert.Equal(t, alpha, m.Alpha)

	assert.Equal(t, []string{"A", "B"}, m.Correlation.Assets)
	require.Len(t, m.Correlation.Values, 2)
	assert.Equal(t, 1.0, m.Correlation.Values[0][0])
	assert.Equal(t, m.Correlation.Values[0][1], m.Correlation.Values[1][0])
}

func TestCalculate_MissingBenchmark(t *testing.T) {
	m, err := NewCalculator(0.8, 0).Calculate(returnSet(goldenReturns, goldenReturns), domain.Benchmark{})
	require.Error(t, err)
	assert.ErrorIs(t, err, formulas.ErrMissingBenchmark)

	var metricErr *formulas.MetricError
	require.True(t, errors.As(err, &metricErr))
	assert.Equal(t, "beta", metricErr.Metric)

	// everything except beta and alpha is still reported
	assert.InDelta(t, -0.05, m.VaR, 1e-12)
	assert.InDelta(t, -0.05, m.CVaR, 1e-12)
	assert.InDelta(t, -0.16452254913212452, m.SharpeRatio, 1e-12)
	assert.InDelta(t, -0.06007, m.MaxDrawdown, 1e-12)
	assert.Zero(t, m.Beta)
	assert.Zero(t, m.Alpha)
	assert.Len(t, m.Correlation.Assets, 1)
	require.Len(t, m.Failures, 1)
	assert.Contains(t, m.Failures["beta"], "benchmark returns are required")
}

func TestCalculate_ReportsEveryFailingMetric(t *testing.T) {
	constant := []float64{0.01, 0.01, 0.01, 0.01}
	_, err := NewCalculator(0.8, 0).Calculate(returnSet(constant, constant), domain.Benchmark{})
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.GreaterOrEqual(t, len(errs), 3)
	assert.ErrorIs(t, err, formulas.ErrZeroVolatility)
	assert.ErrorIs(t, err, formulas.ErrMissingBenchmark)
}

func TestCalculate_DegenerateCVaR(t *testing.T) {
	benchmark := domain.Benchmark{Returns: []float64{-0.04, 0.01, -0.02, 0.03, 0.00}}
	m, err := NewCalculator(0.95, 0).Calculate(returnSet(goldenReturns, goldenReturns), benchmark)
	assert.ErrorIs(t, err, formulas.ErrDegenerateCVaR)

	assert.InDelta(t, -0.06598643841691967, m.VaR, 1e-9)
	assert.Equal(t, m.ParametricVaR, m.VaR)
	assert.Zero(t, m.CVaR)
	assert.InDelta(t, -0.16452254913212452, m.SharpeRatio, 1e-12)
	assert.InDelta(t, -0.3, m.SortinoRatio, 1e-12)
	assert.InDelta(t, -0.06007, m.MaxDrawdown, 1e-12)
	assert.NotZero(t, m.Beta)
	assert.Equal(t, []string{"cvar"}, keys(m.Failures))
}

func TestCalculate_MissingBenchmarkAndDegenerateCVaR(t *testing.T) {
	m, err := NewCalculator(0.99, 0).Calculate(returnSet(goldenReturns, goldenReturns), domain.Benchmark{})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	assert.InDelta(t, -0.09083996459984099, m.VaR, 1e-9)
	assert.InDelta(t, -0.16452254913212452, m.SharpeRatio, 1e-12)
	assert.InDelta(t, -0.06007, m.MaxDrawdown, 1e-12)
	assert.Equal(t, 0.99, m.Confidence)
	assert.ElementsMatch(t, []string{"beta", "cvar"}, keys(m.Failures))
}

func TestCalculate_NoFailuresOnSuccess(t *testing.T) {
	benchmark := domain.Benchmark{Returns: []float64{-0.04, 0.01, -0.02, 0.03, 0.00}}
	m, err := NewCalculator(0.8, 0).Calculate(returnSet(goldenReturns, goldenReturns), benchmark)
	require.NoError(t, err)
	assert.Nil(t, m.Failures)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCalculate_InsufficientData(t *testing.T) {
	_, err := NewCalculator(0.95, 0).Calculate(returnSet([]float64{0.01}, []float64{0.01}), domain.Benchmark{Returns: []float64{0.01}})
	assert.ErrorIs(t, err, formulas.ErrInsufficientData)
}

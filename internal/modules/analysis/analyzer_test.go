package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/returns"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)
	return a
}

func pos(id string, qty float64, prices ...float64) domain.Position {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		history[i] = domain.PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return domain.Position{AssetID: id, Quantity: qty, PriceHistory: history}
}

func TestNewAnalyzer_Validation(t *testing.T) {
	_, err := NewAnalyzer(Config{ParticipationRate: 0, HorizonDays: 10})
	assert.Error(t, err)
	_, err = NewAnalyzer(Config{ParticipationRate: 1.5, HorizonDays: 10})
	assert.Error(t, err)
	_, err = NewAnalyzer(Config{ParticipationRate: 0.2, HorizonDays: 0})
	assert.Error(t, err)
}

func TestConcentration(t *testing.T) {
	portfolio := domain.Portfolio{Positions: []domain.Position{
		pos("A", 1, 500),
		pos("B", 1, 300),
		pos("C", 1, 100),
		pos("D", 1, 100),
	}}

	report, err := newAnalyzer(t).Concentration(portfolio)
	require.NoError(t, err)

	assert.Equal(t, "A", report.TopAsset)
	assert.InDelta(t, 0.5, report.TopWeight, 1e-12)
	assert.InDelta(t, 0.9, report.Top3Weight, 1e-12)
	assert.InDelta(t, 0.25+0.09+0.01+0.01, report.HHI, 1e-12)
	assert.InDelta(t, 1/0.36, report.EffectiveN, 1e-9)
	assert.Equal(t, "D", report.Weights[3].AssetID)
}

func TestConcentration_EqualWeights(t *testing.T) {
	portfolio := domain.Portfolio{Positions: []domain.Position{pos("A", 1, 10), pos("B", 1, 10)}}
	report, err := newAnalyzer(t).Concentration(portfolio)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, report.EffectiveN, 1e-12)
	assert.InDelta(t, 1.0, report.Top3Weight, 1e-12)
}

func TestLiquidity(t *testing.T) {
	liquid := pos("LIQ", 100, 10)
	liquid.AvgDailyVolume = 1000 // 100 / (0.2*1000) = 0.5 days
	slow := pos("SLOW", 1000, 10)
	slow.AvgDailyVolume = 200 // 1000 / 40 = 25 days
	unknown := pos("OTC", 200, 10)

	report, err := newAnalyzer(t).Liquidity(domain.Portfolio{Positions: []domain.Position{liquid, slow, unknown}})
	require.NoError(t, err)
	require.Len(t, report.Positions, 3)

	assert.InDelta(t, 0.5, report.Positions[0].DaysToLiquidate, 1e-12)
	assert.False(t, report.Positions[0].Illiquid)
	assert.InDelta(t, 0.05, report.Positions[0].Illiquidity, 1e-12)

	assert.InDelta(t, 25.0, report.Positions[1].DaysToLiquidate, 1e-12)
	assert.True(t, report.Positions[1].Illiquid)
	assert.Equal(t, 1.0, report.Positions[1].Illiquidity)

	assert.False(t, report.Positions[2].VolumeKnown)
	assert.True(t, report.Positions[2].Illiquid)

	// values 1000, 10000, 2000
	assert.InDelta(t, 12000.0/13000, report.IlliquidShare, 1e-12)
	assert.InDelta(t, (1000*0.5+10000*25)/11000.0, report.WeightedDays, 1e-9)
	assert.InDelta(t, (1000*0.05+12000)/13000.0, report.Score, 1e-12)

	assert.Equal(t, []float64{0.05, 1, 1}, roundAll(newAnalyzer(t).Illiquidity(domain.Portfolio{Positions: []domain.Position{liquid, slow, unknown}})))
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(int(x*1e9+0.5)) / 1e9
	}
	return out
}

func TestCounterparty(t *testing.T) {
	a := pos("A", 1, 600)
	a.Counterparty = "ibkr"
	b := pos("B", 1, 300)
	b.Counterparty = "ibkr"
	c := pos("C", 1, 100)
	d := pos("D", 1, 1000)
	d.Counterparty = "tradernet"

	report, err := newAnalyzer(t).Counterparty(domain.Portfolio{Positions: []domain.Position{a, b, c, d}})
	require.NoError(t, err)
	require.Len(t, report.Exposures, 3)

	assert.Equal(t, "tradernet", report.Largest)
	assert.InDelta(t, 0.5, report.LargestShare, 1e-12)
	assert.Equal(t, "ibkr", report.Exposures[1].Name)
	assert.Equal(t, []string{"A", "B"}, report.Exposures[1].Assets)
	assert.Equal(t, UnassignedCounterparty, report.Exposures[2].Name)
	assert.InDelta(t, 0.25+0.2025+0.0025, report.HHI, 1e-12)
}

func TestCounterparty_ZeroValue(t *testing.T) {
	_, err := newAnalyzer(t).Counterparty(domain.Portfolio{Positions: []domain.Position{pos("A", 0, 10)}})
	assert.ErrorIs(t, err, formulas.ErrInsufficientData)
}

func TestSystematic(t *testing.T) {
	benchmark := domain.Benchmark{Name: "index", Returns: []float64{0.01, -0.02, 0.03, 0.00, -0.01}}

	t.Run("fully explained", func(t *testing.T) {
		set := domain.ReturnSet{Portfolio: domain.NewReturnSeries("p", []float64{0.021, -0.039, 0.061, 0.001, -0.019})}
		report, err := newAnalyzer(t).Systematic(set, benchmark)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, report.Beta, 1e-9)
		assert.InDelta(t, 1.0, report.RSquared, 1e-9)
		assert.InDelta(t, 1.0, report.SystematicShare, 1e-9)
		assert.InDelta(t, 0.0, report.IdiosyncraticShare, 1e-9)
		assert.Equal(t, "index", report.Benchmark)
	})

	t.Run("share matches r squared", func(t *testing.T) {
		set := domain.ReturnSet{Portfolio: domain.NewReturnSeries("p", []float64{-0.05, 0.02, -0.03, 0.04, -0.01})}
		report, err := newAnalyzer(t).Systematic(set, benchmark)
		require.NoError(t, err)
		assert.InDelta(t, report.RSquared, report.SystematicShare, 1e-9)
		assert.InDelta(t, 1.0, report.SystematicShare+report.IdiosyncraticShare, 1e-12)
	})

	t.Run("requires benchmark", func(t *testing.T) {
		set := domain.ReturnSet{Portfolio: domain.NewReturnSeries("p", []float64{0.01, 0.02})}
		_, err := newAnalyzer(t).Systematic(set, domain.Benchmark{})
		assert.ErrorIs(t, err, formulas.ErrMissingBenchmark)
	})
}

func TestDecomposition(t *testing.T) {
	portfolio := domain.Portfolio{Positions: []domain.Position{
		pos("A", 10, 100, 102, 99, 101, 104),
		pos("B", 20, 50, 49, 51, 50, 52),
		pos("C", 5, 80, 82, 79, 85, 84),
	}}
	set, err := returns.NewExtractor().Extract(portfolio)
	require.NoError(t, err)

	report, err := newAnalyzer(t).Decomposition(portfolio, set)
	require.NoError(t, err)
	require.Len(t, report.Assets, 3)

	sumComponent, sumShare := 0.0, 0.0
	for _, c := range report.Assets {
		sumComponent += c.Component
		sumShare += c.Share
	}
	assert.InDelta(t, report.Volatility, sumComponent, 1e-12)
	assert.InDelta(t, 1.0, sumShare, 1e-12)
	assert.Equal(t, "B", report.Assets[1].AssetID)
}

func TestDecomposition_FlatPortfolio(t *testing.T) {
	portfolio := domain.Portfolio{Positions: []domain.Position{pos("A", 1, 10, 10, 10)}}
	set, err := returns.NewExtractor().Extract(portfolio)
	require.NoError(t, err)

	_, err = newAnalyzer(t).Decomposition(portfolio, set)
	assert.ErrorIs(t, err, formulas.ErrZeroVolatility)
}

package formulas

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCorrelationMatrix_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	for trial := 0; trial < 20; trial++ {
		assets := 1 + rng.Intn(6)
		length := 5 + rng.Intn(50)
		series := make([][]float64, assets)
		for i := range series {
			series[i] = make([]float64, length)
			for j := range series[i] {
				series[i][j] = rng.NormFloat64() * 0.02
			}
		}

		corr, err := CorrelationMatrix(series)
		require.NoError(t, err)
		require.Equal(t, assets, corr.SymmetricDim())

		for i := 0; i < assets; i++ {
			assert.InDelta(t, 1.0, corr.At(i, i), 1e-9)
			for j := 0; j < assets; j++ {
				assert.Equal(t, corr.At(i, j), corr.At(j, i))
				assert.GreaterOrEqual(t, corr.At(i, j), -1.0)
				assert.LessOrEqual(t, corr.At(i, j), 1.0)
			}
		}
	}
}

func TestCorrelationMatrix_SingleAsset(t *testing.T) {
	corr, err := CorrelationMatrix([][]float64{{0.01, -0.02, 0.03}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, SymToRows(corr))
}

func TestCorrelationMatrix_PerfectAndConstant(t *testing.T) {
	a := []float64{0.01, -0.02, 0.03, 0.00}
	b := []float64{0.02, -0.04, 0.06, 0.00}
	c := []float64{0.01, 0.01, 0.01, 0.01}

	corr, err := CorrelationMatrix([][]float64{a, b, c})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.Equal(t, 0.0, corr.At(0, 2), "constant series carries no correlation")
	assert.Equal(t, 1.0, corr.At(2, 2))
}

func TestCorrelationMatrix_Errors(t *testing.T) {
	_, err := CorrelationMatrix(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = CorrelationMatrix([][]float64{{0.01, 0.02}, {0.01}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPortfolioVolatility(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.03,
	})

	vol, err := PortfolioVolatility([]float64{0.5, 0.5}, cov)
	require.NoError(t, err)
	// 0.25*0.04 + 0.25*0.03 + 2*0.25*0.01 = 0.0225
	assert.InDelta(t, 0.15, vol, 1e-12)

	_, err = PortfolioVolatility([]float64{1}, cov)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStressedVolatility(t *testing.T) {
	corr := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	stdDevs := []float64{0.1, 0.1}
	weights := []float64{0.5, 0.5}

	base, err := StressedVolatility(weights, stdDevs, corr, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.005), base, 1e-12)

	doubled, err := StressedVolatility(weights, stdDevs, corr, 2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2*base, doubled, 1e-12)

	// correlation pushed to 1 makes the portfolio as volatile as each asset
	merged, err := StressedVolatility(weights, stdDevs, corr, 1, 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, merged, 1e-12)
}

func TestRiskContributions_SumToVolatility(t *testing.T) {
	cov := mat.NewSymDense(3, []float64{
		0.04, 0.006, 0.002,
		0.006, 0.09, 0.01,
		0.002, 0.01, 0.01,
	})
	weights := []float64{0.5, 0.3, 0.2}

	marginal, component, vol, err := RiskContributions(weights, cov)
	require.NoError(t, err)
	require.Len(t, marginal, 3)

	sum := 0.0
	for _, c := range component {
		sum += c
	}
	assert.InDelta(t, vol, sum, 1e-12)
}

func TestCalculateReturns(t *testing.T) {
	returns, err := CalculateReturns([]float64{100, 110, 99})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, returns, 1e-12)

	_, err = CalculateReturns([]float64{100})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = CalculateReturns([]float64{0, 10})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	assert.InDelta(t, StdDev(returns)*math.Sqrt(252), AnnualizedVolatility(returns), 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

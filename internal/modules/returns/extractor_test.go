package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func position(id string, qty float64, prices ...float64) domain.Position {
	history := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		history[i] = domain.PricePoint{Time: day0.AddDate(0, 0, i), Price: p}
	}
	return domain.Position{AssetID: id, Quantity: qty, PriceHistory: history}
}

func TestExtract(t *testing.T) {
	portfolio := domain.Portfolio{
		Name: "core",
		Positions: []domain.Position{
			position("A", 10, 100, 110, 99),
			position("B", 20, 50, 50, 55),
		},
	}

	set, err := NewExtractor().Extract(portfolio)
	require.NoError(t, err)

	require.Len(t, set.Assets, 2)
	assert.Equal(t, "A", set.Assets[0].AssetID)
	assert.Equal(t, "B", set.Assets[1].AssetID)
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, set.Assets[0].Returns(), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.1}, set.Assets[1].Returns(), 1e-12)

	// values: 2000, 2100, 2090
	assert.InDeltaSlice(t, []float64{0.05, 2090.0/2100 - 1}, set.Portfolio.Returns(), 1e-12)
	assert.Equal(t, "core", set.Portfolio.AssetID)

	require.Len(t, set.Periods, 2)
	assert.Equal(t, day0.AddDate(0, 0, 1), set.Periods[0])
	assert.Len(t, set.AssetReturns(), 2)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name      string
		portfolio domain.Portfolio
		want      error
	}{
		{"no positions", domain.Portfolio{}, formulas.ErrInsufficientData},
		{
			"single price",
			domain.Portfolio{Positions: []domain.Position{position("A", 1, 100)}},
			formulas.ErrInsufficientData,
		},
		{
			"different lengths",
			domain.Portfolio{Positions: []domain.Position{
				position("A", 1, 100, 101, 102),
				position("B", 1, 100, 101),
			}},
			formulas.ErrDimensionMismatch,
		},
		{
			"zero prior price",
			domain.Portfolio{Positions: []domain.Position{position("A", 1, 0, 101)}},
			formulas.ErrInsufficientData,
		},
		{
			"value overflow",
			domain.Portfolio{Positions: []domain.Position{
				position("A", 1, 1e308, 1),
				position("B", 1, 1e308, 1),
			}},
			domain.ErrInvalidPortfolio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor().Extract(tt.portfolio)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtract_MisalignedTimestamps(t *testing.T) {
	b := position("B", 1, 100, 101)
	b.PriceHistory[1].Time = b.PriceHistory[1].Time.Add(time.Hour)

	_, err := NewExtractor().Extract(domain.Portfolio{Positions: []domain.Position{
		position("A", 1, 100, 101),
		b,
	}})
	assert.ErrorIs(t, err, formulas.ErrDimensionMismatch)
}

func TestNewProfile(t *testing.T) {
	portfolio := domain.Portfolio{Positions: []domain.Position{
		position("A", 10, 100, 110, 99, 104),
		position("B", 20, 50, 50, 55, 54),
	}}
	portfolio.Positions[1].Duration = 5

	set, err := NewExtractor().Extract(portfolio)
	require.NoError(t, err)

	profile, err := NewProfile(portfolio, set)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, profile.AssetIDs)
	assert.InDelta(t, 1040.0+1080.0, profile.Value, 1e-9)
	assert.InDelta(t, 1.0, profile.Weights[0]+profile.Weights[1], 1e-12)
	assert.InDelta(t, formulas.StdDev(set.Assets[0].Returns()), profile.StdDevs[0], 1e-15)

	vol, err := profile.Volatility()
	require.NoError(t, err)
	assert.Greater(t, vol, 0.0)

	doubled, err := profile.StressedVolatility(2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2*vol, doubled, 1e-12)

	// only B carries duration: w_B * 5 * (0.01 + 0.02*0.5)
	assert.InDelta(t, profile.Weights[1]*5*0.02, profile.DurationExposure(0.01, 0.02), 1e-12)
}

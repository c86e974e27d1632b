package formulas

// DrawdownMetrics represents drawdown analysis of a return series
type DrawdownMetrics struct {
	MaxDrawdown       float64 `json:"max_drawdown"`        // Worst curve/peak - 1 (always <= 0)
	CurrentDrawdown   float64 `json:"current_drawdown"`    // Drawdown at the last period
	PeriodsInDrawdown int     `json:"periods_in_drawdown"` // Periods since the last peak
	PeakIndex         int     `json:"peak_index"`          // Curve index of the peak before the trough (0 = initial wealth)
	TroughIndex       int     `json:"trough_index"`        // Curve index of the trough
}

// MaxDrawdown calculates the maximum drawdown from a return series.
//
// The wealth curve starts at 1.0 and compounds each return. The result is the
// minimum of curve/runningPeak - 1, so it is always <= 0 and exactly 0 when the
// curve never declines from a prior peak.
//
// Because the initial wealth of 1.0 counts as a peak, a loss in the first
// period is a drawdown: [-0.05, 0.02] yields -0.05. A curve built only from
// the compounded returns, with no initial point, would report 0 for it.
func MaxDrawdown(returns []float64) (float64, error) {
	m, err := Drawdown(returns)
	if err != nil {
		return 0, err
	}
	return m.MaxDrawdown, nil
}

// Drawdown calculates comprehensive drawdown metrics for a return series.
func Drawdown(returns []float64) (DrawdownMetrics, error) {
	if len(returns) == 0 {
		return DrawdownMetrics{}, metricErr("max_drawdown", ErrInsufficientData)
	}

	var m DrawdownMetrics
	curve := 1.0
	peak := 1.0
	peakIndex := 0

	for i, r := range returns {
		curve *= 1 + r
		idx := i + 1

		if curve > peak {
			peak = curve
			peakIndex = idx
		}

		drawdown := curve/peak - 1
		if drawdown < m.MaxDrawdown {
			m.MaxDrawdown = drawdown
			m.PeakIndex = peakIndex
			m.TroughIndex = idx
		}
		m.CurrentDrawdown = drawdown
	}

	m.PeriodsInDrawdown = len(returns) - peakIndex
	return m, nil
}

package formulas

import (
	"errors"
	"fmt"
)

// Error taxonomy for risk calculations. Callers match with errors.Is.
var (
	// ErrInsufficientData is returned when a series has too few observations.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidConfidence is returned when a confidence level is outside (0,1).
	ErrInvalidConfidence = errors.New("confidence must lie in (0,1)")
	// ErrDegenerateCVaR is returned when no observation falls at or below VaR.
	ErrDegenerateCVaR = errors.New("no observations at or below VaR threshold")
	// ErrZeroVolatility is returned when a ratio denominator is zero.
	ErrZeroVolatility = errors.New("zero volatility")
	// ErrDimensionMismatch is returned when paired series are misaligned.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrMissingBenchmark is returned when a benchmark series is required but absent.
	ErrMissingBenchmark = errors.New("benchmark returns are required")
	// ErrInvalidScenario is returned when shock parameters are missing or out of range.
	ErrInvalidScenario = errors.New("invalid scenario parameters")
)

// MinObservations is the minimum series length for every sample statistic.
const MinObservations = 2

// zeroVolatilityEpsilon absorbs floating point noise on constant series.
const zeroVolatilityEpsilon = 1e-12

// MetricError identifies which metric failed.
type MetricError struct {
	Metric string
	Err    error
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("%s: %v", e.Metric, e.Err)
}

func (e *MetricError) Unwrap() error {
	return e.Err
}

func metricErr(metric string, err error) error {
	return &MetricError{Metric: metric, Err: err}
}

func requireObservations(metric string, data []float64) error {
	if len(data) < MinObservations {
		return metricErr(metric, fmt.Errorf("%w: need at least %d observations, got %d",
			ErrInsufficientData, MinObservations, len(data)))
	}
	return nil
}

func validateConfidence(metric string, confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return metricErr(metric, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence))
	}
	return nil
}

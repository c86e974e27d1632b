package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sentinel_risk"

// PrometheusObserver records branch timings and failures as Prometheus metrics
type PrometheusObserver struct {
	branchDuration *prometheus.HistogramVec
	branchFailures *prometheus.CounterVec
	reports        *prometheus.CounterVec
	reportDuration prometheus.Histogram
}

// NewPrometheusObserver creates the collectors and registers them with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		branchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "branch_duration_seconds",
				Help:      "Duration of each analysis branch in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"branch"},
		),
		branchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "branch_failures_total",
				Help:      "Total number of failed analysis branches.",
			},
			[]string{"branch"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Total number of risk reports, by outcome.",
			},
			[]string{"outcome"},
		),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "End-to-end risk report latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{o.branchDuration, o.branchFailures, o.reports, o.reportDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) BranchStarted(string) {}

func (o *PrometheusObserver) BranchFinished(branch string, duration time.Duration, err error) {
	o.branchDuration.WithLabelValues(branch).Observe(duration.Seconds())
	if err != nil {
		o.branchFailures.WithLabelValues(branch).Inc()
	}
}

func (o *PrometheusObserver) ReportCompleted(_ string, duration time.Duration, failed int) {
	outcome := "complete"
	if failed > 0 {
		outcome = "partial"
	}
	o.reports.WithLabelValues(outcome).Inc()
	o.reportDuration.Observe(duration.Seconds())
}

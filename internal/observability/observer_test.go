package observability

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) BranchStarted(b string) { r.add("start:" + b) }
func (r *recorder) BranchFinished(b string, _ time.Duration, err error) {
	if err != nil {
		r.add("fail:" + b)
		return
	}
	r.add("done:" + b)
}
func (r *recorder) ReportCompleted(p string, _ time.Duration, _ int) { r.add("report:" + p) }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMulti(a, nil, b)
	require.Len(t, m, 2)

	m.BranchStarted("metrics")
	m.BranchFinished("metrics", time.Millisecond, nil)
	m.BranchFinished("stress", time.Millisecond, errors.New("boom"))
	m.ReportCompleted("core", time.Second, 1)

	want := []string{"start:metrics", "done:metrics", "fail:stress", "report:core"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestNop(t *testing.T) {
	var o Observer = Nop{}
	assert.NotPanics(t, func() {
		o.BranchStarted("x")
		o.BranchFinished("x", 0, errors.New("ignored"))
		o.ReportCompleted("p", 0, 0)
	})
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLogObserver(log)

	o.BranchStarted("metrics")
	o.BranchFinished("stress", 5*time.Millisecond, errors.New("bad params"))
	o.ReportCompleted("core", time.Second, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"component":"risk_engine"`)
	assert.Contains(t, lines[0], `"branch":"metrics"`)
	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[1], `"error":"bad params"`)
	assert.Contains(t, lines[2], `"failed_branches":1`)
	assert.Contains(t, lines[2], `"level":"warn"`)
}

func TestLogObserver_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	o := NewLogObserver(zerolog.New(&buf).Level(zerolog.InfoLevel))

	o.BranchStarted("metrics")
	o.BranchFinished("metrics", time.Millisecond, nil)
	assert.Empty(t, buf.String())

	o.ReportCompleted("core", time.Second, 0)
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	o.BranchStarted("metrics")
	o.BranchFinished("metrics", 2*time.Millisecond, nil)
	o.BranchFinished("stress", time.Millisecond, errors.New("boom"))
	o.BranchFinished("stress", time.Millisecond, errors.New("boom"))
	o.ReportCompleted("core", time.Second, 1)
	o.ReportCompleted("core", time.Second, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(o.branchFailures.WithLabelValues("stress")))
	assert.Equal(t, 0.0, testutil.ToFloat64(o.branchFailures.WithLabelValues("metrics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.reports.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.reports.WithLabelValues("complete")))
	assert.Equal(t, 2, testutil.CollectAndCount(o.branchDuration))
}

func TestPrometheusObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	_, err = NewPrometheusObserver(reg)
	assert.Error(t, err)
}

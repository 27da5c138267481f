package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimerStartsImmediately(t *testing.T) {
	timer := NewTimer()
	require.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.GreaterOrEqual(t, timer.Duration(), time.Duration(0))
}

func TestTimerDurationGrows(t *testing.T) {
	timer := NewTimer()

	time.Sleep(20 * time.Millisecond)
	first := timer.Duration()
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	second := timer.Duration()
	assert.Greater(t, second, first, "duration should keep growing across reads")
}

func TestTimerObserveDuration(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_reconcile_seconds",
		Help:    "Test histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	timer.ObserveDuration(h)

	assert.GreaterOrEqual(t, timer.Duration(), 10*time.Millisecond)
}

func TestTimerObserveDurationVec(t *testing.T) {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_check_seconds",
		Help:    "Test histogram vec",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	timer.ObserveDurationVec(hv, "full")

	assert.GreaterOrEqual(t, timer.Duration(), 10*time.Millisecond)
}

func TestIndependentTimers(t *testing.T) {
	older := NewTimer()
	time.Sleep(20 * time.Millisecond)
	newer := NewTimer()
	time.Sleep(20 * time.Millisecond)

	assert.Greater(t, older.Duration(), newer.Duration())
}

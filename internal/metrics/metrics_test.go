package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionStarted()
	m.Violation("keydown")
	m.Violation("keydown")
	m.Violation("visibilitychange")
	m.ForcedRestart()
	m.Submitted(67)
	m.PersistenceFailure("attempt")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.violations.WithLabelValues("keydown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues("visibilitychange")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forcedRestarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("attempt")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.score))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionStarted()
		m.Violation("keydown")
		m.ForcedRestart()
		m.Submitted(10)
		m.PersistenceFailure("responses")
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the quiz collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsStarted prometheus.Counter
	violations      *prometheus.CounterVec
	forcedRestarts  prometheus.Counter
	submissions     prometheus.Counter
	persistFailures *prometheus.CounterVec
	score           prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		}),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_integrity_violations_total",
				Help: "Counted integrity violations by platform signal",
			},
			[]string{"signal"},
		),
		forcedRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_forced_restarts_total",
			Help: "Sessions restarted after reaching the violation limit",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Graded submissions",
		}),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_persistence_failures_total",
				Help: "Failed writes during submission by stage",
			},
			[]string{"stage"},
		),
		score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_score_percentage",
			Help:    "Score percentage of graded submissions",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
	reg.MustRegister(
		m.sessionsStarted,
		m.violations,
		m.forcedRestarts,
		m.submissions,
		m.persistFailures,
		m.score,
	)
	return m
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) Violation(signal string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(signal).Inc()
}

func (m *Metrics) ForcedRestart() {
	if m == nil {
		return
	}
	m.forcedRestarts.Inc()
}

// Submitted records one graded submission and its percentage.
func (m *Metrics) Submitted(percentage int) {
	if m == nil {
		return
	}
	m.submissions.Inc()
	m.score.Observe(float64(percentage))
}

func (m *Metrics) PersistenceFailure(stage string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(stage).Inc()
}

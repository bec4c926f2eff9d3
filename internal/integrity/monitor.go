package integrity

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type State string

const (
	StateInactive   State = "INACTIVE"
	StateActive     State = "ACTIVE"
	StateRestarting State = "RESTARTING"
)

const DefaultMaxViolations = 3

type Verdict int

const (
	VerdictIgnored Verdict = iota // not a violation, or not monitoring
	VerdictWarn                   // counted; session must show a blocking warning
	VerdictRestart                // limit reached; session must restart
)

// Violation is one counted loss of focus.
type Violation struct {
	Kind SignalKind `json:"kind"`
	At   time.Time  `json:"at"`
}

type Option func(*Monitor)

func WithMaxViolations(n int) Option { return func(m *Monitor) { m.max = n } }

// WithCoalesceWindow ignores violations arriving within d of the previous
// counted one. Zero counts every signal.
func WithCoalesceWindow(d time.Duration) Option { return func(m *Monitor) { m.window = d } }

func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

func WithLogger(l *zap.Logger) Option { return func(m *Monitor) { m.log = l } }

// Monitor is the violation escalation machine. It is not safe for concurrent
// use; the owning session serialises calls.
type Monitor struct {
	platform Platform
	max      int
	window   time.Duration
	now      func() time.Time
	log      *zap.Logger

	state    State
	count    int
	degraded bool
	history  []Violation
	cancel   func()
}

func NewMonitor(p Platform, opts ...Option) *Monitor {
	m := &Monitor{
		platform: p,
		max:      DefaultMaxViolations,
		now:      time.Now,
		log:      zap.NewNop(),
		state:    StateInactive,
	}
	for _, o := range opts {
		o(m)
	}
	if m.max < 1 {
		m.max = DefaultMaxViolations
	}
	return m
}

// Start requests exclusive fullscreen, attaches handler to the platform and
// marks the monitor ACTIVE. A fullscreen failure is logged and leaves the
// monitor running in degraded mode.
func (m *Monitor) Start(ctx context.Context, handler func(Signal)) {
	if m.state == StateActive {
		return
	}
	m.degraded = false
	if err := m.platform.RequestFullscreen(ctx); err != nil {
		m.degraded = true
		m.log.Warn("fullscreen unavailable, continuing without enforcement", zap.Error(err))
	}
	m.attach(handler)
	m.state = StateActive
}

// Observe feeds one signal through the escalation policy.
func (m *Monitor) Observe(sig Signal) Verdict {
	if m.state != StateActive || !sig.IsViolation() {
		return VerdictIgnored
	}
	at := sig.At
	if at.IsZero() {
		at = m.now()
	}
	if m.window > 0 && len(m.history) > 0 && at.Sub(m.history[len(m.history)-1].At) < m.window {
		m.log.Debug("violation coalesced", zap.String("signal", string(sig.Kind)))
		return VerdictIgnored
	}
	m.count++
	m.history = append(m.history, Violation{Kind: sig.Kind, At: at})
	m.log.Info("integrity violation",
		zap.String("signal", string(sig.Kind)),
		zap.Int("count", m.count),
		zap.Int("max", m.max))
	if m.count >= m.max {
		m.state = StateRestarting
		m.detach()
		return VerdictRestart
	}
	return VerdictWarn
}

// Resume re-requests fullscreen after a warning was acknowledged.
func (m *Monitor) Resume(ctx context.Context) error {
	if m.state != StateActive {
		return nil
	}
	if err := m.platform.RequestFullscreen(ctx); err != nil {
		m.degraded = true
		m.log.Warn("re-entering fullscreen failed", zap.Error(err))
		return err
	}
	m.degraded = false
	return nil
}

// Abandon leaves fullscreen, detaches and clears the count.
func (m *Monitor) Abandon(ctx context.Context) {
	if err := m.platform.ExitFullscreen(ctx); err != nil {
		m.log.Warn("exit fullscreen failed", zap.Error(err))
	}
	m.Reset()
}

// Stop detaches without touching the display; used when the session is graded.
func (m *Monitor) Stop() {
	m.detach()
	if m.state == StateActive {
		m.state = StateInactive
	}
}

// Reset detaches and restores the initial state.
func (m *Monitor) Reset() {
	m.detach()
	m.state = StateInactive
	m.count = 0
	m.degraded = false
	m.history = nil
}

// MarkDegraded records a fullscreen failure reported by the platform after
// the fact (requests may fail asynchronously).
func (m *Monitor) MarkDegraded(reason string) {
	m.degraded = true
	m.log.Warn("fullscreen request failed on client", zap.String("reason", reason))
}

func (m *Monitor) State() State { return m.state }
func (m *Monitor) Count() int { return m.count }
func (m *Monitor) Max() int { return m.max }
func (m *Monitor) Degraded() bool { return m.degraded }
func (m *Monitor) Attached() bool { return m.cancel != nil }
func (m *Monitor) History() []Violation { return append([]Violation(nil), m.history...) }

func (m *Monitor) attach(handler func(Signal)) {
	m.detach()
	m.cancel = m.platform.Subscribe(handler)
}

func (m *Monitor) detach() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

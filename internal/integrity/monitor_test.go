package integrity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type deniedPlatform struct {
	*RemotePlatform
}

func (deniedPlatform) RequestFullscreen(context.Context) error {
	return errors.New("permission denied")
}

func escape() Signal { return Signal{Kind: SignalKeyDown, Key: KeyEscape} }

func TestSignal_IsViolation(t *testing.T) {
	tests := []struct {
		sig  Signal
		want bool
	}{
		{Signal{Kind: SignalFullscreenChange, Fullscreen: false}, true},
		{Signal{Kind: SignalFullscreenChange, Fullscreen: true}, false},
		{Signal{Kind: SignalVisibilityChange, Hidden: true}, true},
		{Signal{Kind: SignalVisibilityChange, Hidden: false}, false},
		{Signal{Kind: SignalKeyDown, Key: "Escape"}, true},
		{Signal{Kind: SignalKeyDown, Key: "Enter"}, false},
		{Signal{Kind: "resize"}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.sig.IsViolation(), "%+v", tc.sig)
	}
}

func TestMonitor_InactiveIgnoresSignals(t *testing.T) {
	m := NewMonitor(NewRemotePlatform())
	assert.Equal(t, VerdictIgnored, m.Observe(escape()))
	assert.Equal(t, 0, m.Count())
}

func TestMonitor_ThreeStrikes(t *testing.T) {
	p := NewRemotePlatform()
	m := NewMonitor(p)
	var seen []Verdict
	m.Start(context.Background(), func(s Signal) { seen = append(seen, m.Observe(s)) })

	require.Equal(t, StateActive, m.State())
	require.True(t, m.Attached())
	assert.Equal(t, []Directive{DirectiveRequestFullscreen}, p.Drain())

	require.True(t, p.Dispatch(escape()))
	require.True(t, p.Dispatch(Signal{Kind: SignalVisibilityChange, Hidden: true}))
	require.True(t, p.Dispatch(Signal{Kind: SignalFullscreenChange}))

	assert.Equal(t, []Verdict{VerdictWarn, VerdictWarn, VerdictRestart}, seen)
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, StateRestarting, m.State())
	assert.False(t, m.Attached())
	assert.Len(t, m.History(), 3)

	// listeners are gone once the limit is reached
	assert.False(t, p.Dispatch(escape()))

	m.Reset()
	assert.Equal(t, StateInactive, m.State())
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.History())
}

func TestMonitor_NonViolatingSignalsDoNotCount(t *testing.T) {
	p := NewRemotePlatform()
	m := NewMonitor(p)
	m.Start(context.Background(), func(s Signal) { m.Observe(s) })

	p.Dispatch(Signal{Kind: SignalFullscreenChange, Fullscreen: true})
	p.Dispatch(Signal{Kind: SignalVisibilityChange, Hidden: false})
	p.Dispatch(Signal{Kind: SignalKeyDown, Key: "a"})

	assert.Equal(t, 0, m.Count())
}

func TestMonitor_DoubleCountByDefault(t *testing.T) {
	m := NewMonitor(NewRemotePlatform())
	m.Start(context.Background(), func(Signal) {})
	now := time.Now()

	assert.Equal(t, VerdictWarn, m.Observe(Signal{Kind: SignalKeyDown, Key: KeyEscape, At: now}))
	assert.Equal(t, VerdictWarn, m.Observe(Signal{Kind: SignalFullscreenChange, At: now.Add(5 * time.Millisecond)}))
	assert.Equal(t, 2, m.Count())
}

func TestMonitor_CoalesceWindow(t *testing.T) {
	m := NewMonitor(NewRemotePlatform(), WithCoalesceWindow(100*time.Millisecond))
	m.Start(context.Background(), func(Signal) {})
	now := time.Now()

	assert.Equal(t, VerdictWarn, m.Observe(Signal{Kind: SignalKeyDown, Key: KeyEscape, At: now}))
	assert.Equal(t, VerdictIgnored, m.Observe(Signal{Kind: SignalFullscreenChange, At: now.Add(20 * time.Millisecond)}))
	assert.Equal(t, VerdictWarn, m.Observe(Signal{Kind: SignalVisibilityChange, Hidden: true, At: now.Add(time.Second)}))
	assert.Equal(t, 2, m.Count())
}

func TestMonitor_ClockUsedForUnstampedSignals(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMonitor(NewRemotePlatform(), WithClock(func() time.Time { return fixed }))
	m.Start(context.Background(), func(Signal) {})

	m.Observe(escape())
	require.Len(t, m.History(), 1)
	assert.Equal(t, fixed, m.History()[0].At)
}

func TestMonitor_MaxViolationsOption(t *testing.T) {
	m := NewMonitor(NewRemotePlatform(), WithMaxViolations(1))
	m.Start(context.Background(), func(Signal) {})
	assert.Equal(t, VerdictRestart, m.Observe(escape()))

	assert.Equal(t, DefaultMaxViolations, NewMonitor(NewRemotePlatform(), WithMaxViolations(0)).Max())
}

func TestMonitor_FullscreenDeniedIsDegradedNotFatal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewMonitor(deniedPlatform{NewRemotePlatform()}, WithLogger(zap.New(core)))
	m.Start(context.Background(), func(Signal) {})

	assert.Equal(t, StateActive, m.State())
	assert.True(t, m.Degraded())
	assert.Equal(t, 1, logs.FilterMessageSnippet("fullscreen unavailable").Len())

	assert.Error(t, m.Resume(context.Background()))
	assert.Equal(t, StateActive, m.State())
}

func TestMonitor_AbandonExitsAndResets(t *testing.T) {
	p := NewRemotePlatform()
	m := NewMonitor(p)
	m.Start(context.Background(), func(s Signal) { m.Observe(s) })
	p.Dispatch(escape())
	p.Drain()

	m.Abandon(context.Background())

	assert.Equal(t, StateInactive, m.State())
	assert.Equal(t, 0, m.Count())
	assert.False(t, m.Attached())
	assert.Equal(t, []Directive{DirectiveExitFullscreen}, p.Drain())
	assert.False(t, p.Dispatch(escape()))
}

func TestMonitor_StopKeepsCount(t *testing.T) {
	m := NewMonitor(NewRemotePlatform())
	m.Start(context.Background(), func(Signal) {})
	m.Observe(escape())

	m.Stop()
	assert.Equal(t, StateInactive, m.State())
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, VerdictIgnored, m.Observe(escape()))
}

func TestRemotePlatform_StaleCancelKeepsNewSubscriber(t *testing.T) {
	p := NewRemotePlatform()
	var first, second int
	cancelFirst := p.Subscribe(func(Signal) { first++ })
	p.Subscribe(func(Signal) { second++ })

	cancelFirst()
	require.True(t, p.Dispatch(escape()))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestRemotePlatform_DirectivesCollapse(t *testing.T) {
	p := NewRemotePlatform()
	require.NoError(t, p.RequestFullscreen(context.Background()))
	require.NoError(t, p.RequestFullscreen(context.Background()))
	assert.Equal(t, []Directive{DirectiveRequestFullscreen}, p.Drain())

	require.NoError(t, p.RequestFullscreen(context.Background()))
	require.NoError(t, p.ExitFullscreen(context.Background()))
	assert.Equal(t, []Directive{DirectiveExitFullscreen}, p.Drain())
	assert.Empty(t, p.Drain())
}

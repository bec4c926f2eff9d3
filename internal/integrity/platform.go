package integrity

import (
	"context"
	"sync"
	"time"
)

type SignalKind string

const (
	SignalFullscreenChange SignalKind = "fullscreenchange"
	SignalVisibilityChange SignalKind = "visibilitychange"
	SignalKeyDown          SignalKind = "keydown"
)

const KeyEscape = "Escape"

// Signal is one platform notification.
type Signal struct {
	Kind       SignalKind
	Fullscreen bool   // fullscreenchange: state after the change
	Hidden     bool   // visibilitychange: document hidden after the change
	Key        string // keydown
	At         time.Time
}

// IsViolation reports whether the signal means exclusive focus was lost.
func (s Signal) IsViolation() bool {
	switch s.Kind {
	case SignalFullscreenChange:
		return !s.Fullscreen
	case SignalVisibilityChange:
		return s.Hidden
	case SignalKeyDown:
		return s.Key == KeyEscape
	}
	return false
}

// Platform is the display environment the monitor observes.
// Implementations must not deliver signals synchronously from inside
// RequestFullscreen or ExitFullscreen.
type Platform interface {
	Subscribe(fn func(Signal)) (cancel func())
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
}

type Directive string

const (
	DirectiveRequestFullscreen Directive = "request_fullscreen"
	DirectiveExitFullscreen    Directive = "exit_fullscreen"
)

// RemotePlatform bridges a browser client: fullscreen requests are queued as
// directives the client drains, and the client posts its events to Dispatch.
type RemotePlatform struct {
	mu      sync.Mutex
	gen     uint64
	handler func(Signal)
	pending []Directive
}

func NewRemotePlatform() *RemotePlatform { return &RemotePlatform{} }

func (p *RemotePlatform) Subscribe(fn func(Signal)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	gen := p.gen
	p.handler = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen == gen {
			p.handler = nil
		}
	}
}

func (p *RemotePlatform) RequestFullscreen(context.Context) error {
	p.push(DirectiveRequestFullscreen)
	return nil
}

func (p *RemotePlatform) ExitFullscreen(context.Context) error {
	p.push(DirectiveExitFullscreen)
	return nil
}

// Dispatch delivers sig to the current subscriber. It reports false when
// nobody is listening, in which case the signal is dropped.
func (p *RemotePlatform) Dispatch(sig Signal) bool {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		return false
	}
	if sig.At.IsZero() {
		sig.At = time.Now()
	}
	h(sig)
	return true
}

// Drain returns and clears the pending directives.
func (p *RemotePlatform) Drain() []Directive {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

func (p *RemotePlatform) push(d Directive) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// a newer request supersedes an undelivered opposite one
	if n := len(p.pending); n > 0 && p.pending[n-1] != d {
		p.pending = p.pending[:n-1]
	}
	if n := len(p.pending); n > 0 && p.pending[n-1] == d {
		return
	}
	p.pending = append(p.pending, d)
}

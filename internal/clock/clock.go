// Package clock provides the countdown timer that drives a cook cycle.
//
// A Timer counts down whole seconds on its own goroutine. Every delivery to
// the listener happens while holding the gate supplied to Bind, and is
// discarded unless the countdown that produced it is still current. Callers
// that invoke Stop while holding the same gate are therefore guaranteed that
// no tick or expiry from the stopped countdown is delivered afterwards.
package clock

import (
	"sync"
	"time"
)

// Listener receives countdown notifications.
type Listener interface {
	// OnTick is called once per elapsed second with the seconds remaining.
	// It is never called with 0: the final second is reported by OnExpired.
	OnTick(remaining int)
	// OnExpired is called once when the countdown reaches zero.
	OnExpired()
}

// TickerFunc creates a ticker firing every d. The returned stop function
// releases it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// RealTicker is the TickerFunc backed by time.NewTicker.
func RealTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Timer is a restartable one-shot countdown.
type Timer struct {
	interval  time.Duration
	newTicker TickerFunc

	listener Listener
	gate     sync.Locker

	mu   sync.Mutex // protects gen and stop
	gen  uint64
	stop chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithInterval overrides the one-second cadence. Used to run simulations
// faster than real time.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		t.interval = d
	}
}

// WithTicker replaces the ticker source. Tests use it to step time by hand.
func WithTicker(fn TickerFunc) Option {
	return func(t *Timer) {
		t.newTicker = fn
	}
}

// New creates an idle Timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		interval:  time.Second,
		newTicker: RealTicker,
		gate:      &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Bind sets the listener and the gate held around every delivery.
// It must be called before Start.
func (t *Timer) Bind(l Listener, gate sync.Locker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
	if gate != nil {
		t.gate = gate
	}
}

// Start begins a countdown of the given seconds, replacing any countdown
// already running.
func (t *Timer) Start(seconds int) {
	t.mu.Lock()
	t.cancelLocked()
	t.gen++
	gen := t.gen
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	ticks, release := t.newTicker(t.interval)
	go t.run(gen, seconds, ticks, release, stop)
}

// Stop cancels the running countdown, if any. Once Stop returns, the
// cancelled countdown delivers nothing further to a caller that holds the gate.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Running reports whether a countdown is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Timer) cancelLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
	t.gen++
}

func (t *Timer) run(gen uint64, remaining int, ticks <-chan time.Time, release func(), stop <-chan struct{}) {
	defer release()
	for {
		select {
		case <-stop:
			return
		case <-ticks:
			remaining--
			if !t.deliver(gen, remaining) || remaining <= 0 {
				return
			}
		}
	}
}

// deliver hands one notification to the listener under the gate. It returns
// false if the countdown was cancelled or replaced.
func (t *Timer) deliver(gen uint64, remaining int) bool {
	t.gate.Lock()
	defer t.gate.Unlock()

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return false
	}
	l := t.listener
	if remaining <= 0 {
		t.stop = nil
		t.gen++
	}
	t.mu.Unlock()

	if l == nil {
		return true
	}
	if remaining > 0 {
		l.OnTick(remaining)
	} else {
		l.OnExpired()
	}
	return true
}

// Package status provides a thread-safe status tracker for the microwave
// daemon. It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/microwave/internal/logic"
	"github.com/sweeney/microwave/internal/oven"
)

// Config contains daemon configuration for display.
type Config struct {
	LogLevel    string
	Broker      string
	HTTPAddr    string
	HeartbeatMs int64
	TickMs      int64
	GPIO        bool
	Console     bool
}

// Counts tallies cook cycles since startup.
type Counts struct {
	Started   int
	Completed int
	Cancelled int
}

// EndedCycle is the most recently finished cook cycle.
type EndedCycle struct {
	Cycle   logic.CookCycle
	Reason  logic.EndReason
	EndedAt time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Oven          oven.Status
	LastChange    time.Time
	LastCycle     *EndedCycle
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Oven: oven.Status{
				State:  logic.StateReady,
				Power:  logic.BasePower,
				Cooker: logic.CookerIdle,
			},
		},
		now: time.Now,
	}
}

// SetOven replaces the oven status without counting anything. Used to seed
// the tracker before the first event.
func (t *Tracker) SetOven(s oven.Status) {
	t.mu.Lock()
	t.snap.Oven = s
	t.mu.Unlock()
}

// Record applies an oven event.
func (t *Tracker) Record(ev oven.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Oven = ev.Status
	t.snap.LastChange = ev.Timestamp

	switch ev.Kind {
	case oven.EventCycleStarted:
		t.snap.Counts.Started++
	case oven.EventCycleEnded:
		switch ev.Reason {
		case logic.EndCompleted:
			t.snap.Counts.Completed++
		case logic.EndCancelled:
			t.snap.Counts.Cancelled++
		}
		t.snap.LastCycle = &EndedCycle{Cycle: ev.Cycle, Reason: ev.Reason, EndedAt: ev.Timestamp}
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastCycle != nil {
		c := *s.LastCycle
		s.LastCycle = &c
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

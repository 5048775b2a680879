package oven

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/microwave/internal/logic"
)

// CookController owns the tube and the clock for one cook cycle. It is the
// only component that commands the tube. It is not safe for concurrent use:
// every call, including clock deliveries, must be serialized by the caller.
type CookController struct {
	clock Clock
	tube  Tube
	out   Output

	state logic.CookerState
	cycle logic.CookCycle

	listeners []CookListener
	observers []CycleObserver

	newID func() string
	now   func() time.Time
}

// NewCookController creates an idle controller. Clock deliveries are made
// while holding gate, which must be the lock that serializes every other
// call into the controller. A nil gate leaves the clock's own default.
func NewCookController(clk Clock, tube Tube, out Output, gate sync.Locker) *CookController {
	c := &CookController{
		clock: clk,
		tube:  tube,
		out:   out,
		state: logic.CookerIdle,
		newID: uuid.NewString,
		now:   time.Now,
	}
	clk.Bind(c, gate)
	return c
}

// Subscribe registers l for tick and completion notifications.
func (c *CookController) Subscribe(l CookListener) {
	c.listeners = append(c.listeners, l)
}

// Observe registers o for cycle lifecycle notifications.
func (c *CookController) Observe(o CycleObserver) {
	c.observers = append(c.observers, o)
}

// State returns Idle or Active.
func (c *CookController) State() logic.CookerState {
	return c.state
}

// Cycle returns the current cycle and whether one is active.
func (c *CookController) Cycle() (logic.CookCycle, bool) {
	return c.cycle, c.state == logic.CookerActive
}

// StartCooking turns the tube on and starts a countdown of minutes*60
// seconds. A cycle already running is stopped first.
func (c *CookController) StartCooking(power, minutes int) {
	if c.state == logic.CookerActive {
		c.Stop()
	}

	seconds := minutes * 60
	c.cycle = logic.CookCycle{
		ID:        c.newID(),
		Power:     power,
		Seconds:   seconds,
		Remaining: seconds,
		StartedAt: c.now(),
	}
	c.state = logic.CookerActive

	c.tube.TurnOn(power)
	c.out.OutputLine(fmt.Sprintf("PowerTube works with %d", power))
	c.clock.Start(seconds)

	for _, o := range c.observers {
		o.CycleStarted(c.cycle)
	}
}

// Stop cancels the active cycle. It is a no-op when idle.
func (c *CookController) Stop() {
	if c.state != logic.CookerActive {
		return
	}
	c.clock.Stop()
	c.end(logic.EndCancelled)
}

// OnTick relays the remaining time to listeners.
func (c *CookController) OnTick(remaining int) {
	if c.state != logic.CookerActive {
		return
	}
	c.cycle.Remaining = remaining
	for _, l := range c.listeners {
		l.CookTick(remaining)
	}
}

// OnExpired ends the cycle. Listeners hear CookCompleted before observers
// hear CycleEnded, so observers see the UI already back in Ready.
func (c *CookController) OnExpired() {
	if c.state != logic.CookerActive {
		return
	}
	c.cycle.Remaining = 0
	ended := c.halt()
	for _, l := range c.listeners {
		l.CookCompleted()
	}
	c.notifyEnded(ended, logic.EndCompleted)
}

func (c *CookController) end(reason logic.EndReason) {
	c.notifyEnded(c.halt(), reason)
}

// halt turns the tube off and returns the cycle that was running.
func (c *CookController) halt() logic.CookCycle {
	c.tube.TurnOff()
	c.out.OutputLine("PowerTube turned off")
	c.state = logic.CookerIdle

	ended := c.cycle
	c.cycle = logic.CookCycle{}
	return ended
}

func (c *CookController) notifyEnded(ended logic.CookCycle, reason logic.EndReason) {
	for _, o := range c.observers {
		o.CycleEnded(ended, reason)
	}
}

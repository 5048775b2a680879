package oven

import (
	"fmt"
	"sync"

	"github.com/sweeney/microwave/internal/clock"
)

// callLog collects calls across fakes so tests can assert ordering.
type callLog struct {
	calls []string
}

func (c *callLog) add(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *callLog) count(call string) int {
	n := 0
	for _, got := range c.calls {
		if got == call {
			n++
		}
	}
	return n
}

func (c *callLog) index(call string) int {
	for i, got := range c.calls {
		if got == call {
			return i
		}
	}
	return -1
}

type fakeDisplay struct{ log *callLog }

func (d fakeDisplay) ShowPower(watts int)        { d.log.add("display.ShowPower(%d)", watts) }
func (d fakeDisplay) ShowTime(minutes, secs int) { d.log.add("display.ShowTime(%d,%d)", minutes, secs) }
func (d fakeDisplay) Clear()                     { d.log.add("display.Clear()") }

type fakeLight struct{ log *callLog }

func (l fakeLight) TurnOn()  { l.log.add("light.TurnOn()") }
func (l fakeLight) TurnOff() { l.log.add("light.TurnOff()") }

type fakeTube struct {
	log *callLog
	on  bool
}

func (t *fakeTube) TurnOn(watts int) {
	t.on = true
	t.log.add("tube.TurnOn(%d)", watts)
}

func (t *fakeTube) TurnOff() {
	t.on = false
	t.log.add("tube.TurnOff()")
}

type fakeCooker struct{ log *callLog }

func (c fakeCooker) StartCooking(power, minutes int) {
	c.log.add("cooker.StartCooking(%d,%d)", power, minutes)
}
func (c fakeCooker) Stop() { c.log.add("cooker.Stop()") }

type fakeOutput struct{ log *callLog }

func (o fakeOutput) OutputLine(line string) { o.log.add("output(%s)", line) }

// fakeClock records Start/Stop and lets tests deliver notifications the way
// the real timer does: under the bound gate, only while started.
type fakeClock struct {
	log *callLog

	listener clock.Listener
	gate     sync.Locker
	running  bool
}

func (c *fakeClock) Bind(l clock.Listener, gate sync.Locker) {
	c.listener = l
	c.gate = gate
	if c.gate == nil {
		c.gate = &sync.Mutex{}
	}
}

func (c *fakeClock) Start(seconds int) {
	c.running = true
	if c.log != nil {
		c.log.add("clock.Start(%d)", seconds)
	}
}

func (c *fakeClock) Stop() {
	c.running = false
	if c.log != nil {
		c.log.add("clock.Stop()")
	}
}

// Tick delivers one tick unless the clock has been stopped.
func (c *fakeClock) Tick(remaining int) {
	c.gate.Lock()
	defer c.gate.Unlock()
	if !c.running {
		return
	}
	c.listener.OnTick(remaining)
}

// Expire delivers expiry unless the clock has been stopped.
func (c *fakeClock) Expire() {
	c.gate.Lock()
	defer c.gate.Unlock()
	if !c.running {
		return
	}
	c.running = false
	c.listener.OnExpired()
}

// Run counts down from seconds the way the real timer does.
func (c *fakeClock) Run(seconds int) {
	for r := seconds - 1; r > 0; r-- {
		c.Tick(r)
	}
	c.Expire()
}

type recordingCookListener struct {
	ticks     []int
	completed int
}

func (l *recordingCookListener) CookTick(remaining int) { l.ticks = append(l.ticks, remaining) }
func (l *recordingCookListener) CookCompleted()         { l.completed++ }

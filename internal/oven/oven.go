package oven

import (
	"sync"
	"time"

	"github.com/sweeney/microwave/internal/logger"
	"github.com/sweeney/microwave/internal/logic"
)

// EventKind classifies an oven event.
type EventKind string

const (
	EventState        EventKind = "STATE"
	EventTick         EventKind = "TICK"
	EventCycleStarted EventKind = "CYCLE_STARTED"
	EventCycleEnded   EventKind = "CYCLE_ENDED"
)

// Status is a point-in-time view of both state machines.
type Status struct {
	State     logic.UIState
	Power     int
	Minutes   int
	Cooker    logic.CookerState
	CycleID   string
	Remaining int
	DoorOpen  bool
}

// Door renders the door position as OPEN or CLOSED.
func (s Status) Door() string {
	if s.DoorOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// Event reports a change in the oven.
type Event struct {
	Kind      EventKind
	Timestamp time.Time
	Status    Status
	Cycle     logic.CookCycle // cycle events only
	Reason    logic.EndReason // EventCycleEnded only
}

// Config lists the leaf components wired into an Oven.
type Config struct {
	PowerButton       Button
	TimeButton        Button
	StartCancelButton Button
	Door              Door

	Clock   Clock
	Tube    Tube
	Display Display
	Light   Light
	Output  Output
}

// Oven composes the UI and the cook controller behind a single lock. Button
// and door notifications are handled synchronously on the notifying
// goroutine; clock deliveries take the same lock, so every notification runs
// to completion before the next one starts.
type Oven struct {
	mu       sync.Mutex
	ui       *UserInterface
	cooker   *CookController
	doorOpen bool

	onEvent func(Event)
	log     *logger.Logger
	now     func() time.Time
}

// Option configures an Oven.
type Option func(*Oven)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Oven) {
		o.log = l
	}
}

// WithEventHandler registers fn to receive oven events. fn runs with the
// oven locked and must neither block nor call back into the Oven.
func WithEventHandler(fn func(Event)) Option {
	return func(o *Oven) {
		o.onEvent = fn
	}
}

// WithNow overrides the time source used for event timestamps.
func WithNow(now func() time.Time) Option {
	return func(o *Oven) {
		o.now = now
	}
}

// New wires the components together and subscribes to the inputs.
func New(cfg Config, opts ...Option) *Oven {
	o := &Oven{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.cooker = NewCookController(cfg.Clock, cfg.Tube, cfg.Output, &o.mu)
	o.cooker.now = o.now
	o.ui = NewUserInterface(cfg.Display, cfg.Light, o.cooker)
	o.cooker.Subscribe(o.ui)
	o.cooker.Subscribe(o)
	o.cooker.Observe(o)

	cfg.PowerButton.OnPressed(func() { o.dispatch(logic.Input{Kind: logic.InputPowerPressed}) })
	cfg.TimeButton.OnPressed(func() { o.dispatch(logic.Input{Kind: logic.InputTimePressed}) })
	cfg.StartCancelButton.OnPressed(func() { o.dispatch(logic.Input{Kind: logic.InputStartCancelPressed}) })
	cfg.Door.OnOpened(func() { o.dispatch(logic.Input{Kind: logic.InputDoorOpened}) })
	cfg.Door.OnClosed(func() { o.dispatch(logic.Input{Kind: logic.InputDoorClosed}) })

	// A door that was already open before we subscribed never notifies.
	if d, ok := cfg.Door.(interface{ IsOpen() bool }); ok && d.IsOpen() {
		o.dispatch(logic.Input{Kind: logic.InputDoorOpened})
	}

	return o
}

// Status returns a snapshot of the current state.
func (o *Oven) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status()
}

// Shutdown cancels any active cycle the way Start/Cancel does, leaving the
// tube and light off and the panel in Ready.
func (o *Oven) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ui.State() == logic.StateCooking {
		o.log.Infow("cancelling cook cycle for shutdown")
		o.ui.Handle(logic.Input{Kind: logic.InputStartCancelPressed})
		o.emit(Event{Kind: EventState})
	}
	if o.cooker.State() == logic.CookerActive {
		o.log.Errorw("cooker active outside a cooking panel at shutdown", "ui_state", o.ui.State())
		o.cooker.Stop()
	}
}

func (o *Oven) dispatch(in logic.Input) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch in.Kind {
	case logic.InputDoorOpened:
		o.doorOpen = true
	case logic.InputDoorClosed:
		o.doorOpen = false
	}

	before := o.ui.Panel()
	o.ui.Handle(in)
	o.enforceInterlock()
	after := o.ui.Panel()

	o.log.Debugw("input handled", "input", in.Kind, "from", before.State, "to", after.State)
	if after != before {
		o.emit(Event{Kind: EventState})
	}
}

// enforceInterlock stops the tube if the door is open during a cycle.
func (o *Oven) enforceInterlock() {
	if o.doorOpen && o.cooker.State() == logic.CookerActive {
		o.log.Errorw("door interlock tripped with cooker active", "ui_state", o.ui.State())
		o.cooker.Stop()
	}
}

func (o *Oven) status() Status {
	p := o.ui.Panel()
	s := Status{
		State:    p.State,
		Power:    p.Power,
		Minutes:  p.Minutes,
		Cooker:   o.cooker.State(),
		DoorOpen: o.doorOpen,
	}
	if c, ok := o.cooker.Cycle(); ok {
		s.CycleID = c.ID
		s.Remaining = c.Remaining
	}
	return s
}

func (o *Oven) emit(ev Event) {
	if o.onEvent == nil {
		return
	}
	ev.Timestamp = o.now()
	ev.Status = o.status()
	o.onEvent(ev)
}

// CookTick implements CookListener. The UI has already refreshed the display.
func (o *Oven) CookTick(remaining int) {
	o.emit(Event{Kind: EventTick})
}

// CookCompleted implements CookListener. The state change is reported by
// CycleEnded once the UI is back in Ready.
func (o *Oven) CookCompleted() {
	o.log.Infow("cook cycle completed")
}

// CycleStarted implements CycleObserver.
func (o *Oven) CycleStarted(c logic.CookCycle) {
	o.log.Infow("cook cycle started", "cycle", c.ID, "power", c.Power, "seconds", c.Seconds)
	o.emit(Event{Kind: EventCycleStarted, Cycle: c})
}

// CycleEnded implements CycleObserver.
func (o *Oven) CycleEnded(c logic.CookCycle, reason logic.EndReason) {
	o.log.Infow("cook cycle ended", "cycle", c.ID, "reason", reason, "remaining", c.Remaining)
	o.emit(Event{Kind: EventCycleEnded, Cycle: c, Reason: reason})
	// Cancellations come from an input, which reports its own state change.
	if reason == logic.EndCompleted {
		o.emit(Event{Kind: EventState})
	}
}

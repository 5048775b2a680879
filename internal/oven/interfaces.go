// Package oven implements the two-layer control core of the microwave: a
// UserInterface that routes button and door notifications through the
// control-panel state machine, composed with a CookController that owns the
// power tube and the countdown clock for one cook cycle at a time.
package oven

import (
	"sync"

	"github.com/sweeney/microwave/internal/clock"
	"github.com/sweeney/microwave/internal/logic"
)

// Clock counts down a cook cycle and notifies a bound listener.
type Clock interface {
	Bind(l clock.Listener, gate sync.Locker)
	Start(seconds int)
	Stop()
}

// Tube is the power-emitting actuator.
type Tube interface {
	TurnOn(watts int)
	TurnOff()
}

// Display shows selections and remaining time.
type Display interface {
	ShowPower(watts int)
	ShowTime(minutes, seconds int)
	Clear()
}

// Light is the cavity lamp.
type Light interface {
	TurnOn()
	TurnOff()
}

// Output is the line-oriented log sink.
type Output interface {
	OutputLine(line string)
}

// Button notifies on every press.
type Button interface {
	OnPressed(fn func())
}

// Door notifies when it opens or closes.
type Door interface {
	OnOpened(fn func())
	OnClosed(fn func())
}

// Cooker is the narrow call channel from the UI into the cook controller.
type Cooker interface {
	StartCooking(power, minutes int)
	Stop()
}

// CookListener receives the cook controller's notifications.
type CookListener interface {
	CookTick(remaining int)
	CookCompleted()
}

// CycleObserver is told when cook cycles begin and end.
type CycleObserver interface {
	CycleStarted(c logic.CookCycle)
	CycleEnded(c logic.CookCycle, reason logic.EndReason)
}

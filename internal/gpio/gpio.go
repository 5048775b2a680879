// Package gpio binds the oven's buttons, door switch and relays to Linux GPIO
// lines. The real implementation uses the GPIO character device; the fake
// implementation lets edges be injected without hardware.
package gpio

import (
	"fmt"
	"io"

	"github.com/sweeney/microwave/internal/device"
)

// Edge is a decoded transition on an input line.
type Edge int

const (
	Falling Edge = iota // line pulled to ground
	Rising              // line released to the pull-up
)

func (e Edge) String() string {
	if e == Rising {
		return "rising"
	}
	return "falling"
}

// Pins holds line offsets (BCM numbering).
type Pins struct {
	Power       int
	Time        int
	StartCancel int
	Door        int
	Tube        int
	Light       int
}

// DefaultPins is the wiring of the reference panel.
var DefaultPins = Pins{
	Power:       17,
	Time:        27,
	StartCancel: 22,
	Door:        26,
	Tube:        23,
	Light:       24,
}

// Validate rejects negative offsets and lines used twice.
func (p Pins) Validate() error {
	seen := make(map[int]string)
	for _, l := range p.lines() {
		if l.pin < 0 {
			return fmt.Errorf("gpio: %s pin %d is negative", l.name, l.pin)
		}
		if other, ok := seen[l.pin]; ok {
			return fmt.Errorf("gpio: pin %d used by both %s and %s", l.pin, other, l.name)
		}
		seen[l.pin] = l.name
	}
	return nil
}

type namedPin struct {
	name string
	pin  int
}

func (p Pins) lines() []namedPin {
	return []namedPin{
		{"power", p.Power},
		{"time", p.Time},
		{"start_cancel", p.StartCancel},
		{"door", p.Door},
		{"tube", p.Tube},
		{"light", p.Light},
	}
}

// Pressable is a push button.
type Pressable interface {
	Press()
}

// Hinge is the door switch.
type Hinge interface {
	Open()
	Close()
}

// Inputs are the devices driven by input edges.
type Inputs struct {
	Power       Pressable
	Time        Pressable
	StartCancel Pressable
	Door        Hinge
}

// Board is a set of requested lines. Inputs are delivered through the
// handlers registered at construction; outputs are exposed as switches.
type Board interface {
	TubeSwitch() device.Switch
	LightSwitch() device.Switch
	io.Closer
}

// handlers maps each input offset to its edge handler.
func handlers(p Pins, in Inputs) map[int]func(Edge) {
	return map[int]func(Edge){
		p.Power:       buttonHandler(in.Power),
		p.Time:        buttonHandler(in.Time),
		p.StartCancel: buttonHandler(in.StartCancel),
		p.Door:        doorHandler(in.Door),
	}
}

// Buttons are wired to ground with a pull-up, so a press is a falling edge.
func buttonHandler(b Pressable) func(Edge) {
	return func(e Edge) {
		if b != nil && e == Falling {
			b.Press()
		}
	}
}

// The door reed switch holds the line low while the door is shut.
func doorHandler(d Hinge) func(Edge) {
	return func(e Edge) {
		if d == nil {
			return
		}
		if e == Rising {
			d.Open()
		} else {
			d.Close()
		}
	}
}

// doorLevel applies a sampled door line level (1 = open).
func doorLevel(d Hinge, value int) {
	if d == nil {
		return
	}
	if value != 0 {
		d.Open()
	} else {
		d.Close()
	}
}

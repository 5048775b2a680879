package gpio

import (
	"fmt"
	"sync"

	"github.com/sweeney/microwave/internal/device"
)

// FakeBoard is a test double that routes injected edges to the inputs and
// records relay writes.
type FakeBoard struct {
	Tube  *FakeSwitch
	Light *FakeSwitch

	// Closed tracks if Close was called
	Closed bool

	// CloseError, if set, will be returned by Close()
	CloseError error

	pins     Pins
	handlers map[int]func(Edge)
}

// NewFakeBoard creates a FakeBoard wired like a RealBoard.
func NewFakeBoard(pins Pins, in Inputs) *FakeBoard {
	return &FakeBoard{
		Tube:     &FakeSwitch{},
		Light:    &FakeSwitch{},
		pins:     pins,
		handlers: handlers(pins, in),
	}
}

// Edge delivers an edge on the given input pin.
func (f *FakeBoard) Edge(pin int, e Edge) error {
	h, ok := f.handlers[pin]
	if !ok {
		return fmt.Errorf("gpio: pin %d is not an input", pin)
	}
	h(e)
	return nil
}

// Press simulates a full press and release of the button on pin.
func (f *FakeBoard) Press(pin int) error {
	if err := f.Edge(pin, Falling); err != nil {
		return err
	}
	return f.Edge(pin, Rising)
}

// TubeSwitch returns the fake tube relay.
func (f *FakeBoard) TubeSwitch() device.Switch { return f.Tube }

// LightSwitch returns the fake lamp relay.
func (f *FakeBoard) LightSwitch() device.Switch { return f.Light }

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.Closed = true
	return f.CloseError
}

// FakeSwitch records every Set call.
type FakeSwitch struct {
	mu     sync.Mutex
	Writes []bool
}

// Set records the write.
func (s *FakeSwitch) Set(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes = append(s.Writes, on)
}

// On reports the last value written.
func (s *FakeSwitch) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Writes) > 0 && s.Writes[len(s.Writes)-1]
}

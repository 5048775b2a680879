package device

import (
	"fmt"
	"sync"
)

// Switch drives a physical on/off output such as a relay line.
type Switch interface {
	Set(on bool)
}

// Display renders power and time selections as output lines.
type Display struct {
	out Output
}

// NewDisplay creates a Display writing to out.
func NewDisplay(out Output) *Display {
	return &Display{out: out}
}

// ShowPower shows the selected power in watts.
func (d *Display) ShowPower(watts int) {
	d.out.OutputLine(fmt.Sprintf("Display shows: %d W", watts))
}

// ShowTime shows minutes and seconds as MM:SS.
func (d *Display) ShowTime(minutes, seconds int) {
	d.out.OutputLine(fmt.Sprintf("Display shows: %02d:%02d", minutes, seconds))
}

// Clear blanks the display.
func (d *Display) Clear() {
	d.out.OutputLine("Display cleared")
}

// Light is the cavity lamp. It only reports actual changes.
type Light struct {
	out Output
	sw  Switch

	mu sync.Mutex
	on bool
}

// NewLight creates a Light. sw may be nil when there is no hardware.
func NewLight(out Output, sw Switch) *Light {
	return &Light{out: out, sw: sw}
}

// TurnOn switches the lamp on.
func (l *Light) TurnOn() {
	l.set(true, "Light is turned on")
}

// TurnOff switches the lamp off.
func (l *Light) TurnOff() {
	l.set(false, "Light is turned off")
}

// IsOn reports whether the lamp is lit.
func (l *Light) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *Light) set(on bool, line string) {
	l.mu.Lock()
	if l.on == on {
		l.mu.Unlock()
		return
	}
	l.on = on
	l.mu.Unlock()

	if l.sw != nil {
		l.sw.Set(on)
	}
	l.out.OutputLine(line)
}

// PowerTube is the magnetron. It is a pure actuator: logging of tube
// commands belongs to the cook controller.
type PowerTube struct {
	sw Switch

	mu    sync.Mutex
	watts int // 0 when off
}

// NewPowerTube creates a tube. sw may be nil when there is no hardware.
func NewPowerTube(sw Switch) *PowerTube {
	return &PowerTube{sw: sw}
}

// TurnOn energises the tube at the given wattage.
func (p *PowerTube) TurnOn(watts int) {
	p.mu.Lock()
	p.watts = watts
	p.mu.Unlock()
	if p.sw != nil {
		p.sw.Set(true)
	}
}

// TurnOff de-energises the tube.
func (p *PowerTube) TurnOff() {
	p.mu.Lock()
	p.watts = 0
	p.mu.Unlock()
	if p.sw != nil {
		p.sw.Set(false)
	}
}

// IsOn reports whether the tube is energised.
func (p *PowerTube) IsOn() bool {
	return p.Watts() > 0
}

// Watts returns the current output power, 0 when off.
func (p *PowerTube) Watts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watts
}

//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/microwave/internal/device"
	"github.com/sweeney/microwave/internal/logger"
)

const consumer = "microwave"

// RealBoard drives actual hardware through the Linux GPIO character device.
type RealBoard struct {
	chip   *gpiocdev.Chip
	inputs []*gpiocdev.Line
	tube   *gpiocdev.Line
	light  *gpiocdev.Line
	log    *logger.Logger
}

// NewRealBoard requests the input lines with edge detection and the relay
// lines as outputs driven low. Edge handlers run on the gpiocdev event
// goroutine and call straight into in.
func NewRealBoard(chipName string, pins Pins, debounce time.Duration, in Inputs, log *logger.Logger) (*RealBoard, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	b := &RealBoard{chip: chip, log: log}

	for pin, handle := range handlers(pins, in) {
		line, err := chip.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(debounce),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				e := Falling
				if evt.Type == gpiocdev.LineEventRisingEdge {
					e = Rising
				}
				log.Debugw("gpio edge", "pin", evt.Offset, "edge", e.String(), "seqno", evt.Seqno)
				handle(e)
			}),
		)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		b.inputs = append(b.inputs, line)

		if pin == pins.Door {
			v, err := line.Value()
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("read door pin %d: %w", pin, err)
			}
			doorLevel(in.Door, v)
		}
	}

	if b.tube, err = chip.RequestLine(pins.Tube, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request tube pin %d: %w", pins.Tube, err)
	}
	if b.light, err = chip.RequestLine(pins.Light, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request light pin %d: %w", pins.Light, err)
	}

	return b, nil
}

// TubeSwitch returns the power tube relay.
func (b *RealBoard) TubeSwitch() device.Switch {
	return &lineSwitch{name: "tube", line: b.tube, log: b.log}
}

// LightSwitch returns the lamp relay.
func (b *RealBoard) LightSwitch() device.Switch {
	return &lineSwitch{name: "light", line: b.light, log: b.log}
}

// Close drives the relays low and returns every line to input with pull-down
// (the Pi boot default) before releasing it.
func (b *RealBoard) Close() error {
	var errs []error

	for _, out := range []*gpiocdev.Line{b.tube, b.light} {
		if out == nil {
			continue
		}
		if err := out.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin %d low: %w", out.Offset(), err))
		}
	}

	lines := append([]*gpiocdev.Line{b.tube, b.light}, b.inputs...)
	for _, l := range lines {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.Offset(), err))
		}
	}
	b.tube, b.light, b.inputs = nil, nil, nil

	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// lineSwitch drives an active-high relay.
type lineSwitch struct {
	name string
	line *gpiocdev.Line
	log  *logger.Logger
}

func (s *lineSwitch) Set(on bool) {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		s.log.Errorw("relay write failed", "relay", s.name, "on", on, "error", err)
	}
}

//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/microwave/internal/device"
	"github.com/sweeney/microwave/internal/logger"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(chipName string, pins Pins, debounce time.Duration, in Inputs, log *logger.Logger) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// TubeSwitch is not implemented on non-Linux platforms.
func (b *RealBoard) TubeSwitch() device.Switch { return nil }

// LightSwitch is not implemented on non-Linux platforms.
func (b *RealBoard) LightSwitch() device.Switch { return nil }

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}

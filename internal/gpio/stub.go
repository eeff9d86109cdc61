//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/cylon-meter/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealSurface is not available on non-Linux platforms.
type RealSurface struct{}

// NewRealSurface returns an error on non-Linux platforms.
func NewRealSurface(chipName string, pins []int) (*RealSurface, error) {
	return nil, errUnsupported
}

func (s *RealSurface) SetAll() error          { return errUnsupported }
func (s *RealSurface) ClearAll() error        { return errUnsupported }
func (s *RealSurface) Toggle(i int) error     { return errUnsupported }
func (s *RealSurface) Set(i int) error        { return errUnsupported }
func (s *RealSurface) Pattern() logic.Pattern { return logic.Pattern{} }
func (s *RealSurface) Close() error           { return nil }

// RealButton is not available on non-Linux platforms.
type RealButton struct{}

// NewRealButton returns an error on non-Linux platforms.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	return nil, errUnsupported
}

// Pressed is not implemented on non-Linux platforms.
func (b *RealButton) Pressed() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealButton) Close() error {
	return nil
}

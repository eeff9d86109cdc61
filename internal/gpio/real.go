//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// RealSurface drives the LED array through a single multi-line request on
// the Linux GPIO character device. The whole array is written in one ioctl,
// so a write never leaves some lines updated and others stale.
type RealSurface struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	values []int
}

// NewRealSurface requests the given line offsets as outputs, all off.
func NewRealSurface(chipName string, pins []int) (*RealSurface, error) {
	if len(pins) != logic.NumLEDs {
		return nil, fmt.Errorf("need %d LED pins, got %d", logic.NumLEDs, len(pins))
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("cylon-meter"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	values := make([]int, len(pins))
	lines, err := chip.RequestLines(pins, gpiocdev.AsOutput(values...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pins %v: %w", pins, err)
	}

	return &RealSurface{
		chip:   chip,
		lines:  lines,
		values: values,
	}, nil
}

func (s *RealSurface) fill(v int) error {
	for i := range s.values {
		s.values[i] = v
	}
	return s.flush()
}

func (s *RealSurface) flush() error {
	if err := s.lines.SetValues(s.values); err != nil {
		return fmt.Errorf("set LED lines: %w", err)
	}
	return nil
}

// SetAll drives every LED line active.
func (s *RealSurface) SetAll() error {
	return s.fill(1)
}

// ClearAll drives every LED line inactive.
func (s *RealSurface) ClearAll() error {
	return s.fill(0)
}

// Toggle inverts LED i. Only line i changes level.
func (s *RealSurface) Toggle(i int) error {
	s.values[i] ^= 1
	return s.flush()
}

// Set drives LED i active.
func (s *RealSurface) Set(i int) error {
	s.values[i] = 1
	return s.flush()
}

// Pattern returns the last written LED levels.
func (s *RealSurface) Pattern() logic.Pattern {
	var p logic.Pattern
	for i, v := range s.values {
		p[i] = v != 0
	}
	return p
}

// Close turns the LEDs off and releases the lines.
// The lines are returned to inputs so nothing is left driven after exit.
func (s *RealSurface) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.ClearAll(); err != nil {
			errs = append(errs, err)
		}
		if err := s.lines.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pins: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pins: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealButton reads the button line. The line uses the internal pull-up, so
// it idles high and reads low while pressed.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests the button line as an input with pull-up.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("cylon-meter"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Pressed reports whether the button is held (raw level low).
func (b *RealButton) Pressed() (bool, error) {
	v, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// Close releases the button line.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

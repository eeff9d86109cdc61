// Package display composites the sweep, mode and thermometer handlers onto
// an LED surface. Every handler runs to completion on the caller's goroutine;
// callers must not invoke two handlers of the same Engine concurrently.
package display

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// Surface is an addressable array of logic.NumLEDs binary outputs.
// Writes take effect immediately.
type Surface interface {
	SetAll() error
	ClearAll() error
	// Toggle inverts output i. The caller guarantees 0 <= i < logic.NumLEDs.
	Toggle(i int) error
	// Set drives output i on.
	Set(i int) error
	// Pattern returns the last written state of every output.
	Pattern() logic.Pattern
}

// Button reports whether the overlay-suppress button is held.
type Button interface {
	Pressed() (bool, error)
}

// ErrButton is wrapped by Sample when the button could not be read. The
// overlay is skipped in that case.
var ErrButton = errors.New("read button")

// Engine owns the sweep state and applies the three handlers to a Surface.
type Engine struct {
	surface Surface
	button  Button
	start   logic.StartState

	sweep  *logic.Sweep
	mode   *logic.ModeFlag
	period *logic.PeriodRegister

	last    logic.Classification
	pressed bool
	counts  logic.Counts
}

// NewEngine creates an engine. The period register starts SLOW, the mode
// NORMAL.
func NewEngine(surface Surface, button Button, start logic.StartState) *Engine {
	return &Engine{
		surface: surface,
		button:  button,
		start:   start,
		sweep:   logic.NewSweep(start),
		mode:    &logic.ModeFlag{},
		period:  logic.NewPeriodRegister(logic.PresetSlow),
	}
}

// Start paints the initial frame: a clean background with the start LED lit
// when the start state asks for it.
func (e *Engine) Start() error {
	if err := e.surface.ClearAll(); err != nil {
		return fmt.Errorf("clear surface: %w", err)
	}
	if e.start.PreLit {
		if err := e.surface.Set(e.sweep.Position()); err != nil {
			return fmt.Errorf("pre-light start LED: %w", err)
		}
	}
	return nil
}

// SweepTick repaints the background for the current mode, advances the eye
// and toggles the LED at its new position. A failed repaint does not stop the
// eye from moving.
func (e *Engine) SweepTick() error {
	var first error
	if e.mode.Load() == logic.ModeFlipped {
		if err := e.surface.SetAll(); err != nil {
			first = fmt.Errorf("repaint flipped background: %w", err)
		}
	} else {
		if err := e.surface.ClearAll(); err != nil {
			first = fmt.Errorf("repaint normal background: %w", err)
		}
	}

	pos := e.sweep.Advance()
	if err := e.surface.Toggle(pos); err != nil && first == nil {
		first = fmt.Errorf("toggle LED %d: %w", pos, err)
	}

	e.counts.SweepTicks++
	return first
}

// ModeTick flips the display mode. The new background appears on the next
// sweep tick.
func (e *Engine) ModeTick(now time.Time) []logic.Event {
	m := e.mode.Flip()
	e.counts.ModeFlips++

	typ := logic.EventModeNormal
	if m == logic.ModeFlipped {
		typ = logic.EventModeFlipped
	}
	return []logic.Event{{
		Timestamp: now,
		Type:      typ,
		Mode:      m,
		Preset:    e.period.Buffered(),
		Reading:   e.last.Reading,
		Level:     e.last.Level,
	}}
}

// Sample handles a completed analog conversion: it classifies the reading,
// stores the preset in the period buffer and, unless the button is held,
// draws the thermometer. A speed event is returned when the buffered preset
// changes.
func (e *Engine) Sample(reading uint16, now time.Time) ([]logic.Event, error) {
	c := logic.Classify(reading)
	prev := e.period.Buffered()
	e.period.SetBuffer(c.Preset)
	e.last = c
	e.counts.Samples++

	var events []logic.Event
	if c.Preset != prev {
		e.counts.PresetChanges++
		typ := logic.EventSpeedSlow
		if c.Preset == logic.PresetFast {
			typ = logic.EventSpeedFast
		}
		events = append(events, logic.Event{
			Timestamp: now,
			Type:      typ,
			Mode:      e.mode.Load(),
			Preset:    c.Preset,
			Reading:   c.Reading,
			Level:     c.Level,
		})
	}

	pressed, err := e.button.Pressed()
	if err != nil {
		// Without a button reading, leave the sweep frame alone.
		e.counts.OverlaysSkipped++
		return events, fmt.Errorf("%w: %w", ErrButton, err)
	}
	e.pressed = pressed
	if pressed {
		e.counts.OverlaysSkipped++
		return events, nil
	}

	if err := e.render(c.Level); err != nil {
		return events, err
	}
	e.counts.OverlaysRendered++
	return events, nil
}

func (e *Engine) render(level logic.Level) error {
	if err := e.surface.ClearAll(); err != nil {
		return fmt.Errorf("clear for thermometer: %w", err)
	}
	for i := 0; i <= int(level); i++ {
		if err := e.surface.Set(i); err != nil {
			return fmt.Errorf("thermometer LED %d: %w", i, err)
		}
	}
	return nil
}

// Period returns the double-buffered frame period register.
func (e *Engine) Period() *logic.PeriodRegister {
	return e.period
}

// State is a point-in-time view of the engine, for status reporting.
type State struct {
	Mode      logic.Mode
	Position  int
	Direction logic.Direction
	Last      logic.Classification
	Active    logic.Preset
	Buffered  logic.Preset
	Pressed   bool
	LEDs      logic.Pattern
	Counts    logic.Counts
}

// State returns the current engine state. Call it from the goroutine that
// runs the handlers.
func (e *Engine) State() State {
	return State{
		Mode:      e.mode.Load(),
		Position:  e.sweep.Position(),
		Direction: e.sweep.Direction(),
		Last:      e.last,
		Active:    e.period.Active(),
		Buffered:  e.period.Buffered(),
		Pressed:   e.pressed,
		LEDs:      e.surface.Pattern(),
		Counts:    e.counts,
	}
}

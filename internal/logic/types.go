// Package logic contains the pure display logic for the cylon meter:
// classification of analog readings, the bouncing sweep, the display mode
// flag and the double-buffered frame period.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep)
// and builds unchanged under TinyGo.
package logic

import "time"

// NumLEDs is the number of outputs on the LED surface.
const NumLEDs = 10

// FullScale is the largest 10-bit analog reading.
const FullScale = 1023

// Mode is the background polarity restored by each sweep tick.
type Mode string

const (
	ModeNormal  Mode = "NORMAL"  // background all off, travelling lit LED
	ModeFlipped Mode = "FLIPPED" // background all on, travelling dark LED
)

// Direction is the travel direction of the sweep.
type Direction string

const (
	DirRight Direction = "RIGHT"
	DirLeft  Direction = "LEFT"
)

// Level is a classified severity bucket in [0, NumLEDs-1].
type Level int

// EventType represents a display state change worth reporting.
type EventType string

const (
	EventModeNormal  EventType = "MODE_NORMAL"
	EventModeFlipped EventType = "MODE_FLIPPED"
	EventSpeedSlow   EventType = "SPEED_SLOW"
	EventSpeedFast   EventType = "SPEED_FAST"
)

// Event represents a display state change to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode
	Preset    Preset
	Reading   uint16
	Level     Level
}

// Pattern is the on/off state of every LED, index 0 leftmost.
type Pattern [NumLEDs]bool

// String renders the pattern as '#' (on) and '.' (off).
func (p Pattern) String() string {
	b := make([]byte, NumLEDs)
	for i, on := range p {
		if on {
			b[i] = '#'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}

// Thermometer returns the bar pattern for a level: LEDs 0..level lit.
func Thermometer(level Level) Pattern {
	var p Pattern
	for i := 0; i <= int(level) && i < NumLEDs; i++ {
		p[i] = true
	}
	return p
}

// Counts tracks handler activity since startup.
type Counts struct {
	SweepTicks       int
	ModeFlips        int
	Samples          int
	OverlaysRendered int
	OverlaysSkipped  int
	PresetChanges    int
}

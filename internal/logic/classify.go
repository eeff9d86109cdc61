package logic

import "time"

// Preset is one of the two frame period settings.
type Preset string

const (
	PresetSlow Preset = "SLOW" // one step per second
	PresetFast Preset = "FAST" // four steps per second
)

// Frame timer arithmetic. A 20 MHz clock divided by 1024 gives one count
// every 51.2us; the presets are the counts that overflow after ~1s and ~0.25s.
const (
	CountPeriod = 51200 * time.Nanosecond

	SlowCounts = 19531
	FastCounts = 4882
)

// Mode timer: a 1024 Hz clock overflowing after ModeCycles.
const (
	ModeClockHz = 1024
	ModeCycles  = 16384

	// ModePeriod is how often the display mode flips.
	ModePeriod = ModeCycles * time.Second / ModeClockHz
)

// Counts returns the timer top value for the preset.
func (p Preset) Counts() int {
	if p == PresetFast {
		return FastCounts
	}
	return SlowCounts
}

// Period returns the wall-clock frame period for the preset.
func (p Preset) Period() time.Duration {
	return time.Duration(p.Counts()) * CountPeriod
}

// fastThreshold is 3V on a 5V reference.
const fastThreshold = FullScale * (3 / 5.0)

// levelMins holds the lowest reading of levels 1..9. Level L covers
// [levelMins[L-1], levelMins[L]).
var levelMins = func() [NumLEDs - 1]float64 {
	var m [NumLEDs - 1]float64
	for i := range m {
		m[i] = FullScale * (float64(i+1) / 10.0)
	}
	return m
}()

// Classification is the result of classifying a single analog reading.
type Classification struct {
	Reading uint16
	Preset  Preset
	Level   Level
}

// Classify maps a 10-bit reading to a frame period preset and a thermometer
// level. Readings above FullScale are treated as FullScale.
func Classify(reading uint16) Classification {
	if reading > FullScale {
		reading = FullScale
	}
	r := float64(reading)

	c := Classification{Reading: reading, Preset: PresetFast, Level: NumLEDs - 1}
	if r <= fastThreshold {
		c.Preset = PresetSlow
	}
	for i, lo := range levelMins {
		if r < lo {
			c.Level = Level(i)
			break
		}
	}
	return c
}

// Package gpio drives the LED lines and reads the button with hardware
// abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Default line offsets on gpiochip0 (BCM numbering), index 0 leftmost.
var DefaultLEDPins = []int{5, 6, 13, 19, 26, 12, 16, 20, 21, 25}

// DefaultButtonPin is the overlay-suppress button, wired to ground.
const DefaultButtonPin = 17

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// Op names a recorded surface operation.
type Op string

const (
	OpSetAll   Op = "SET_ALL"
	OpClearAll Op = "CLEAR_ALL"
	OpToggle   Op = "TOGGLE"
	OpSet      Op = "SET"
)

// Write is a single recorded surface operation. Index is -1 for whole-array
// operations.
type Write struct {
	Op    Op
	Index int
}

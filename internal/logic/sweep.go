package logic

// StartState is the initial state of the sweep.
type StartState struct {
	Position  int
	Direction Direction
	// PreLit lights the LED at Position before the first tick. The sweep only
	// ever toggles, so without it the first frame would be blank.
	PreLit bool
}

// DefaultStart begins at the left end moving right with LED 0 already lit.
// The first visible step therefore happens one full period after startup.
var DefaultStart = StartState{Position: 0, Direction: DirRight, PreLit: true}

// Sweep is the bouncing eye position.
type Sweep struct {
	position  int
	direction Direction
}

// NewSweep creates a sweep from the given start state. Out-of-range
// positions are clamped to the surface.
func NewSweep(start StartState) *Sweep {
	pos := start.Position
	if pos < 0 {
		pos = 0
	}
	if pos > NumLEDs-1 {
		pos = NumLEDs - 1
	}
	dir := start.Direction
	if dir != DirLeft {
		dir = DirRight
	}
	return &Sweep{position: pos, direction: dir}
}

// Advance moves one step and returns the new position, which is the single
// LED the caller must toggle. At either end the direction reverses and the
// eye steps back inward, so the end LED is shown for exactly one tick.
func (s *Sweep) Advance() int {
	switch s.direction {
	case DirRight:
		if s.position == NumLEDs-1 {
			s.direction = DirLeft
			s.position--
		} else {
			s.position++
		}
	case DirLeft:
		if s.position == 0 {
			s.direction = DirRight
			s.position++
		} else {
			s.position--
		}
	}
	return s.position
}

// Position returns the current position.
func (s *Sweep) Position() int {
	return s.position
}

// Direction returns the current travel direction.
func (s *Sweep) Direction() Direction {
	return s.direction
}

package logic

import "sync/atomic"

// ModeFlag holds the display mode. It has a single writer (the mode timer)
// and is safe to read from any goroutine.
type ModeFlag struct {
	flipped atomic.Bool
}

// Load returns the current mode.
func (f *ModeFlag) Load() Mode {
	if f.flipped.Load() {
		return ModeFlipped
	}
	return ModeNormal
}

// Flip toggles the mode and returns the new value.
func (f *ModeFlag) Flip() Mode {
	// Single writer: a plain load/store pair cannot race with another flip.
	next := !f.flipped.Load()
	f.flipped.Store(next)
	if next {
		return ModeFlipped
	}
	return ModeNormal
}

// PeriodRegister is a double-buffered frame period. The sampler writes the
// buffer on every reading; the frame timer copies it into the active slot
// only when a period completes, so a running countdown is never shortened
// or lengthened in flight.
type PeriodRegister struct {
	active atomic.Bool // true = fast
	buffer atomic.Bool
}

// NewPeriodRegister creates a register with both slots set to p.
func NewPeriodRegister(p Preset) *PeriodRegister {
	r := &PeriodRegister{}
	r.active.Store(p == PresetFast)
	r.buffer.Store(p == PresetFast)
	return r
}

// SetBuffer stores the preset to apply at the next period boundary.
func (r *PeriodRegister) SetBuffer(p Preset) {
	r.buffer.Store(p == PresetFast)
}

// Buffered returns the pending preset.
func (r *PeriodRegister) Buffered() Preset {
	return presetOf(r.buffer.Load())
}

// Active returns the preset governing the current countdown.
func (r *PeriodRegister) Active() Preset {
	return presetOf(r.active.Load())
}

// Latch copies the buffer into the active slot. It must only be called at a
// period boundary. Reports whether the active preset changed.
func (r *PeriodRegister) Latch() bool {
	next := r.buffer.Load()
	return r.active.Swap(next) != next
}

func presetOf(fast bool) Preset {
	if fast {
		return PresetFast
	}
	return PresetSlow
}

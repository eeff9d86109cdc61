package gpio

import (
	"errors"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// FakeSurface is a test double that keeps LED state in memory and records
// every write.
type FakeSurface struct {
	// LEDs is the current output state.
	LEDs logic.Pattern

	// Writes contains every operation in call order.
	Writes []Write

	// WriteError, if set, is returned by every write after recording it.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSurface creates a FakeSurface with all LEDs off.
func NewFakeSurface() *FakeSurface {
	return &FakeSurface{}
}

// SetAll turns every LED on.
func (f *FakeSurface) SetAll() error {
	f.Writes = append(f.Writes, Write{Op: OpSetAll, Index: -1})
	if f.WriteError != nil {
		return f.WriteError
	}
	for i := range f.LEDs {
		f.LEDs[i] = true
	}
	return nil
}

// ClearAll turns every LED off.
func (f *FakeSurface) ClearAll() error {
	f.Writes = append(f.Writes, Write{Op: OpClearAll, Index: -1})
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LEDs = logic.Pattern{}
	return nil
}

// Toggle inverts LED i.
func (f *FakeSurface) Toggle(i int) error {
	f.Writes = append(f.Writes, Write{Op: OpToggle, Index: i})
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LEDs[i] = !f.LEDs[i]
	return nil
}

// Set turns LED i on.
func (f *FakeSurface) Set(i int) error {
	f.Writes = append(f.Writes, Write{Op: OpSet, Index: i})
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LEDs[i] = true
	return nil
}

// Pattern returns the current LED state.
func (f *FakeSurface) Pattern() logic.Pattern {
	return f.LEDs
}

// Close marks the surface as closed.
func (f *FakeSurface) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes, keeping LED state.
func (f *FakeSurface) Reset() {
	f.Writes = nil
	f.WriteError = nil
}

// FakeButton is a test double that returns scripted button states.
type FakeButton struct {
	// Samples contains scripted pressed values to return.
	// Each call to Pressed() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// ReadError, if set, will be returned by Pressed()
	ReadError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples ...bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Pressed returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButton) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the button to the first sample.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Closed = false
}

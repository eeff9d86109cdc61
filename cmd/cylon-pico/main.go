//go:build tinygo

// Command cylon-pico is the microcontroller build of the cylon meter. It runs
// the same display engine and frame timer as the daemon, driving machine pins
// and the on-chip ADC directly.
//
//	tinygo flash -target=pico ./cmd/cylon-pico
package main

import (
	"context"
	"machine"
	"time"

	"github.com/sweeney/cylon-meter/internal/display"
	"github.com/sweeney/cylon-meter/internal/logic"
	"github.com/sweeney/cylon-meter/internal/sched"
)

// LEDs 0..9, left to right.
var ledPins = [logic.NumLEDs]machine.Pin{
	machine.GP2, machine.GP3, machine.GP4, machine.GP5, machine.GP6,
	machine.GP7, machine.GP8, machine.GP9, machine.GP10, machine.GP11,
}

const (
	buttonPin = machine.GP15
	potPin    = machine.ADC0
)

// pinSurface drives the LEDs straight from GPIO. Writes cannot fail.
type pinSurface struct {
	pins  [logic.NumLEDs]machine.Pin
	state logic.Pattern
}

func newPinSurface(pins [logic.NumLEDs]machine.Pin) *pinSurface {
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	return &pinSurface{pins: pins}
}

func (s *pinSurface) fill(on bool) error {
	for i, p := range s.pins {
		p.Set(on)
		s.state[i] = on
	}
	return nil
}

func (s *pinSurface) SetAll() error   { return s.fill(true) }
func (s *pinSurface) ClearAll() error { return s.fill(false) }

func (s *pinSurface) Toggle(i int) error {
	s.state[i] = !s.state[i]
	s.pins[i].Set(s.state[i])
	return nil
}

func (s *pinSurface) Set(i int) error {
	s.state[i] = true
	s.pins[i].High()
	return nil
}

func (s *pinSurface) Pattern() logic.Pattern { return s.state }

// pinButton is active low with the internal pull-up.
type pinButton struct{ pin machine.Pin }

func newPinButton(pin machine.Pin) pinButton {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return pinButton{pin: pin}
}

func (b pinButton) Pressed() (bool, error) { return !b.pin.Get(), nil }

// potReader scales the ADC's left-justified 16-bit result to 10 bits.
type potReader struct{ adc machine.ADC }

func newPotReader(pin machine.Pin) potReader {
	machine.InitADC()
	a := machine.ADC{Pin: pin}
	a.Configure(machine.ADCConfig{})
	return potReader{adc: a}
}

func (r potReader) Read() (uint16, error) { return r.adc.Get() >> 6, nil }

func main() {
	surface := newPinSurface(ledPins)
	engine := display.NewEngine(surface, newPinButton(buttonPin), logic.DefaultStart)
	if err := engine.Start(); err != nil {
		println("start:", err.Error())
	}

	ctx := context.Background()
	frame := make(chan time.Time)
	samples := make(chan uint16)

	go sched.NewFrameTimer(engine.Period()).Run(ctx, frame)
	go sched.RunSampler(ctx, newPotReader(potPin), time.Millisecond, time.Second, samples, nil)

	mode := time.NewTicker(logic.ModePeriod)
	for {
		select {
		case <-frame:
			// Pin writes cannot fail.
			_ = engine.SweepTick()
		case <-mode.C:
			_ = engine.ModeTick(time.Now())
		case v := <-samples:
			// No telemetry on the board, and pinButton never errors.
			_, _ = engine.Sample(v, time.Now())
		}
	}
}

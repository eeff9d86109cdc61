package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/cylon-meter/internal/adc"
	"github.com/sweeney/cylon-meter/internal/logic"
)

// fakeCountdown records each requested period and expires only when the
// test fires it.
type fakeCountdown struct {
	requested chan time.Duration
	fire      chan time.Time
}

func newFakeCountdown() *fakeCountdown {
	return &fakeCountdown{
		requested: make(chan time.Duration, 16),
		fire:      make(chan time.Time),
	}
}

func (c *fakeCountdown) After(d time.Duration) <-chan time.Time {
	c.requested <- d
	return c.fire
}

func startFrameTimer(t *testing.T, reg *logic.PeriodRegister) (*fakeCountdown, chan time.Time, context.CancelFunc, chan error) {
	t.Helper()
	cd := newFakeCountdown()
	ft := NewFrameTimer(reg)
	ft.After = cd.After

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan time.Time)
	errCh := make(chan error, 1)
	go func() { errCh <- ft.Run(ctx, out) }()
	return cd, out, cancel, errCh
}

func TestFrameTimerUsesActivePeriod(t *testing.T) {
	reg := logic.NewPeriodRegister(logic.PresetSlow)
	cd, out, cancel, errCh := startFrameTimer(t, reg)
	defer cancel()

	if d := <-cd.requested; d != logic.PresetSlow.Period() {
		t.Errorf("first countdown: got %v, want %v", d, logic.PresetSlow.Period())
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cd.fire <- now
	if got := <-out; !got.Equal(now) {
		t.Errorf("tick time: got %v, want %v", got, now)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run: got %v, want context.Canceled", err)
	}
}

func TestFrameTimerAppliesBufferAtBoundary(t *testing.T) {
	reg := logic.NewPeriodRegister(logic.PresetSlow)
	cd, out, cancel, _ := startFrameTimer(t, reg)
	defer cancel()

	// Countdown in flight at the slow period.
	if d := <-cd.requested; d != logic.PresetSlow.Period() {
		t.Fatalf("first countdown: got %v", d)
	}

	// A fast reading arrives mid-count: the running countdown is untouched.
	reg.SetBuffer(logic.PresetFast)
	if reg.Active() != logic.PresetSlow {
		t.Fatalf("active changed mid-count")
	}
	select {
	case d := <-cd.requested:
		t.Fatalf("countdown restarted mid-count with %v", d)
	default:
	}

	cd.fire <- time.Time{}
	<-out

	if reg.Active() != logic.PresetFast {
		t.Errorf("active after boundary: got %s, want FAST", reg.Active())
	}
	if d := <-cd.requested; d != logic.PresetFast.Period() {
		t.Errorf("second countdown: got %v, want %v", d, logic.PresetFast.Period())
	}
}

func TestFrameTimerWaitsForTickToBeTaken(t *testing.T) {
	reg := logic.NewPeriodRegister(logic.PresetFast)
	cd, out, cancel, _ := startFrameTimer(t, reg)
	defer cancel()

	<-cd.requested
	cd.fire <- time.Time{}

	// The tick is pending; no new countdown may start yet.
	time.Sleep(10 * time.Millisecond)
	select {
	case d := <-cd.requested:
		t.Fatalf("countdown %v armed before tick was taken", d)
	default:
	}

	<-out
	if d := <-cd.requested; d != logic.PresetFast.Period() {
		t.Errorf("next countdown: got %v", d)
	}
}

func TestRunSamplerDeliversReadings(t *testing.T) {
	r := adc.NewFakeReader(0, 511, 1023)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan uint16)
	errCh := make(chan error, 1)
	go func() { errCh <- RunSampler(ctx, r, 0, 0, out, nil) }()

	for i, want := range []uint16{0, 511, 1023, 1023} {
		if got := <-out; got != want {
			t.Errorf("reading %d: got %d, want %d", i, got, want)
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("RunSampler: got %v, want context.Canceled", err)
	}
}

// flakyReader fails a fixed number of reads before succeeding.
type flakyReader struct {
	failures int
	value    uint16
}

func (r *flakyReader) Read() (uint16, error) {
	if r.failures > 0 {
		r.failures--
		return 0, errors.New("adc fault")
	}
	return r.value, nil
}

func TestRunSamplerReportsAndRetriesErrors(t *testing.T) {
	r := &flakyReader{failures: 2, value: 700}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var errs []error
	onErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	out := make(chan uint16)
	go RunSampler(ctx, r, 0, time.Millisecond, out, onErr)

	if got := <-out; got != 700 {
		t.Errorf("got %d, want 700", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 2 {
		t.Errorf("expected 2 reported errors, got %d", len(errs))
	}
}

func TestRunSamplerStopsWhileBlocked(t *testing.T) {
	r := adc.NewFakeReader(5)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- RunSampler(ctx, r, 0, 0, make(chan uint16), nil) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunSampler did not stop")
	}
}

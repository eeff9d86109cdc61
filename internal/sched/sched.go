// Package sched provides the periodic event sources that feed the display
// dispatcher: the double-buffered frame timer and the free-running sampler.
// Sources only produce events; the dispatcher runs the handlers.
package sched

import (
	"context"
	"time"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// FrameTimer delivers sweep ticks at the period held in a
// logic.PeriodRegister. The register's buffer is latched only when a
// countdown expires, so a speed change never cuts a running period short
// or makes it overrun.
type FrameTimer struct {
	reg *logic.PeriodRegister

	// After starts a countdown. Tests replace it; it defaults to time.After.
	After func(time.Duration) <-chan time.Time
}

// NewFrameTimer creates a frame timer driven by reg.
func NewFrameTimer(reg *logic.PeriodRegister) *FrameTimer {
	return &FrameTimer{reg: reg, After: time.After}
}

// Run counts down the active period, latches the buffered preset, and sends
// the expiry time on out. The next countdown is not armed until the tick
// has been accepted. Run returns when ctx is done.
func (f *FrameTimer) Run(ctx context.Context, out chan<- time.Time) error {
	for {
		expired := f.After(f.reg.Active().Period())

		var t time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t = <-expired:
		}

		f.reg.Latch()

		select {
		case out <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reader performs one analog conversion.
type Reader interface {
	Read() (uint16, error)
}

// RunSampler converts continuously and sends each reading on out. The next
// conversion starts once the previous reading has been taken, after waiting
// interval (zero for back-to-back conversions). Read errors go to onErr and
// the conversion is retried after retry. RunSampler returns when ctx is done.
func RunSampler(ctx context.Context, r Reader, interval, retry time.Duration, out chan<- uint16, onErr func(error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, err := r.Read()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			if err := sleep(ctx, retry); err != nil {
				return err
			}
			continue
		}

		select {
		case out <- v:
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/cylon-meter/internal/logic"
)

func TestQueueDeliversInOrder(t *testing.T) {
	f := NewFakePublisher()
	q := NewQueue(f, 8, zap.NewNop().Sugar())

	q.PublishSystem(SystemEvent{Event: "STARTUP"})
	q.Publish(logic.Event{Type: logic.EventModeFlipped})
	q.Publish(logic.Event{Type: logic.EventSpeedFast})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}

	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events: got %+v", f.SystemEvents)
	}
	if len(f.Events) != 2 || f.Events[0].Type != logic.EventModeFlipped || f.Events[1].Type != logic.EventSpeedFast {
		t.Errorf("events: got %+v", f.Events)
	}
}

func TestQueueFlushesAfterCancel(t *testing.T) {
	f := NewFakePublisher()
	q := NewQueue(f, 4, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.PublishSystem(SystemEvent{Event: "SHUTDOWN", Reason: "SIGTERM"})
	q.Run(ctx)

	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("expected SHUTDOWN delivered on the way out, got %+v", f.SystemEvents)
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(NewFakePublisher(), 1, zap.NewNop().Sugar())

	if err := q.Publish(logic.Event{Type: logic.EventModeNormal}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := q.Publish(logic.Event{Type: logic.EventModeFlipped}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second publish: got %v, want ErrQueueFull", err)
	}
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	Discard
	release chan struct{}
}

func (b blockingPublisher) Publish(logic.Event) error {
	<-b.release
	return nil
}

func TestQueueDoesNotBlockCaller(t *testing.T) {
	b := blockingPublisher{release: make(chan struct{})}
	defer close(b.release)
	q := NewQueue(b, 4, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := q.Publish(logic.Event{Type: logic.EventModeFlipped}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("publish blocked for %v behind a stalled broker", d)
	}
}

func TestQueueDeliveryErrorsAreLogged(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	core, logs := observer.New(zapcore.WarnLevel)
	q := NewQueue(f, 2, zap.New(core).Sugar())

	if err := q.Publish(logic.Event{Type: logic.EventSpeedSlow}); err != nil {
		t.Errorf("enqueue should not see delivery errors, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	if n := logs.FilterMessage("publish error").Len(); n != 1 {
		t.Errorf("expected one logged delivery error, got %d", n)
	}
}

func TestQueueConnectionStatus(t *testing.T) {
	f := NewFakePublisher()
	q := NewQueue(f, 1, zap.NewNop().Sugar())
	if q.IsConnected() {
		t.Error("expected disconnected")
	}
	f.Connected = true
	if !q.IsConnected() {
		t.Error("expected connected from wrapped publisher")
	}

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.Closed {
		t.Error("Close should close the wrapped publisher")
	}
}

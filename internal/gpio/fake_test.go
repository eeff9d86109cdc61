package gpio

import (
	"errors"
	"testing"
)

func TestFakeSurfaceSetAllClearAll(t *testing.T) {
	f := NewFakeSurface()

	if err := f.SetAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Pattern().String(); got != "##########" {
		t.Errorf("after SetAll: got %s", got)
	}

	if err := f.ClearAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Pattern().String(); got != ".........." {
		t.Errorf("after ClearAll: got %s", got)
	}
}

func TestFakeSurfaceToggleOnlyTouchesOneLED(t *testing.T) {
	f := NewFakeSurface()

	f.Toggle(3)
	if got := f.Pattern().String(); got != "...#......" {
		t.Errorf("after Toggle(3): got %s", got)
	}

	f.Toggle(3)
	if got := f.Pattern().String(); got != ".........." {
		t.Errorf("after second Toggle(3): got %s", got)
	}

	f.SetAll()
	f.Toggle(9)
	if got := f.Pattern().String(); got != "#########." {
		t.Errorf("after SetAll+Toggle(9): got %s", got)
	}
}

func TestFakeSurfaceRecordsWrites(t *testing.T) {
	f := NewFakeSurface()
	f.ClearAll()
	f.Set(0)
	f.Toggle(1)
	f.SetAll()

	want := []Write{
		{Op: OpClearAll, Index: -1},
		{Op: OpSet, Index: 0},
		{Op: OpToggle, Index: 1},
		{Op: OpSetAll, Index: -1},
	}
	if len(f.Writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(f.Writes))
	}
	for i := range want {
		if f.Writes[i] != want[i] {
			t.Errorf("write %d: got %+v, want %+v", i, f.Writes[i], want[i])
		}
	}
}

func TestFakeSurfaceWriteError(t *testing.T) {
	f := NewFakeSurface()
	f.WriteError = errors.New("simulated error")

	if err := f.SetAll(); err == nil {
		t.Error("expected error to be returned")
	}
	if got := f.Pattern().String(); got != ".........." {
		t.Errorf("state should be unchanged on error, got %s", got)
	}
	if len(f.Writes) != 1 {
		t.Errorf("expected failed write to be recorded, got %d writes", len(f.Writes))
	}
}

func TestFakeSurfaceReset(t *testing.T) {
	f := NewFakeSurface()
	f.Set(2)
	f.WriteError = errors.New("x")
	f.Reset()

	if len(f.Writes) != 0 {
		t.Errorf("expected writes cleared, got %d", len(f.Writes))
	}
	if f.WriteError != nil {
		t.Error("expected WriteError cleared")
	}
	if !f.LEDs[2] {
		t.Error("Reset should keep LED state")
	}
}

func TestFakeButtonPressed(t *testing.T) {
	b := NewFakeButton(false, true, false)

	want := []bool{false, true, false, false}
	for i, w := range want {
		got, err := b.Pressed()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: got %v, want %v", i, got, w)
		}
	}
}

func TestFakeButtonNoSamples(t *testing.T) {
	b := NewFakeButton()

	if _, err := b.Pressed(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeButtonError(t *testing.T) {
	b := NewFakeButton(true)
	b.ReadError = errors.New("simulated error")

	_, err := b.Pressed()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeButtonReset(t *testing.T) {
	b := NewFakeButton(true, false)
	b.Pressed()
	b.Close()
	b.Reset()

	if b.Closed {
		t.Error("expected Closed cleared")
	}
	if got, _ := b.Pressed(); got != true {
		t.Errorf("after reset: got %v, want true", got)
	}
}

package logic

import (
	"math"
	"testing"
	"time"
)

func TestClassifyEndpoints(t *testing.T) {
	if got := Classify(0); got.Level != 0 || got.Preset != PresetSlow {
		t.Errorf("Classify(0): got level %d preset %s, want 0 SLOW", got.Level, got.Preset)
	}
	if got := Classify(FullScale); got.Level != 9 || got.Preset != PresetFast {
		t.Errorf("Classify(1023): got level %d preset %s, want 9 FAST", got.Level, got.Preset)
	}
}

func TestClassifyClampsAboveFullScale(t *testing.T) {
	got := Classify(4095)
	if got.Reading != FullScale {
		t.Errorf("expected reading clamped to %d, got %d", FullScale, got.Reading)
	}
	if got.Level != 9 {
		t.Errorf("expected level 9, got %d", got.Level)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0).Level
	for r := uint16(1); r <= FullScale; r++ {
		l := Classify(r).Level
		if l < prev {
			t.Fatalf("level decreased at reading %d: %d -> %d", r, prev, l)
		}
		if l > prev+1 {
			t.Fatalf("level skipped at reading %d: %d -> %d", r, prev, l)
		}
		prev = l
	}
}

func TestClassifyLevelBoundaries(t *testing.T) {
	for k := 1; k <= 9; k++ {
		edge := uint16(math.Floor(FullScale * float64(k) / 10))

		if got := Classify(edge).Level; got < Level(k-1) {
			t.Errorf("reading %d (k=%d): level %d, want >= %d", edge, k, got, k-1)
		}
		if got := Classify(edge - 1).Level; got > Level(k-1) {
			t.Errorf("reading %d (k=%d): level %d, want <= %d", edge-1, k, got, k-1)
		}
	}
}

func TestClassifyLevelTable(t *testing.T) {
	tests := []struct {
		reading uint16
		want    Level
	}{
		{0, 0},
		{102, 0}, // 102 < 102.3
		{103, 1},
		{204, 1}, // 204 < 204.6
		{205, 2},
		{510, 4},
		{511, 4}, // 511 < 511.5
		{512, 5},
		{920, 8}, // 920 < 920.7
		{921, 9},
		{1023, 9},
	}

	for _, tt := range tests {
		if got := Classify(tt.reading).Level; got != tt.want {
			t.Errorf("Classify(%d).Level: got %d, want %d", tt.reading, got, tt.want)
		}
	}
}

func TestClassifyPresetBoundary(t *testing.T) {
	edge := uint16(math.Floor(FullScale * 3.0 / 5.0))
	if edge != 613 {
		t.Fatalf("unexpected edge %d", edge)
	}
	if got := Classify(edge).Preset; got != PresetSlow {
		t.Errorf("Classify(%d).Preset: got %s, want SLOW", edge, got)
	}
	if got := Classify(edge + 1).Preset; got != PresetFast {
		t.Errorf("Classify(%d).Preset: got %s, want FAST", edge+1, got)
	}
}

func TestPresetPeriods(t *testing.T) {
	slow := PresetSlow.Period()
	if d := slow - time.Second; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("slow period %v not within 1ms of 1s", slow)
	}
	fast := PresetFast.Period()
	if d := fast - 250*time.Millisecond; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("fast period %v not within 1ms of 250ms", fast)
	}
	if PresetSlow.Counts() != 19531 || PresetFast.Counts() != 4882 {
		t.Errorf("unexpected counts: slow=%d fast=%d", PresetSlow.Counts(), PresetFast.Counts())
	}
}

func TestModePeriod(t *testing.T) {
	if ModePeriod != 16*time.Second {
		t.Errorf("mode period: got %v, want 16s", ModePeriod)
	}
	if got := time.Duration(ModeCycles) * time.Second / ModeClockHz; got != ModePeriod {
		t.Errorf("%d cycles at %d Hz: got %v, want %v", ModeCycles, ModeClockHz, got, ModePeriod)
	}
}

func TestThermometer(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{0, "#........."},
		{4, "#####....."},
		{9, "##########"},
	}
	for _, tt := range tests {
		if got := Thermometer(tt.level).String(); got != tt.want {
			t.Errorf("Thermometer(%d): got %s, want %s", tt.level, got, tt.want)
		}
	}
}

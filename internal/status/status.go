// Package status provides a thread-safe status tracker for the cylon-meter daemon.
// It is written by the dispatcher loop and read by HTTP handlers and the
// MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/sweeney/cylon-meter/internal/display"
)

// ReadingWindow is the number of recent readings kept for statistics.
const ReadingWindow = 64

// Config contains daemon configuration for display.
type Config struct {
	Output      string
	HeartbeatMs int64
	IntervalMs  int64
	Broker      string
	HTTPAddr    string
}

// ReadingStats summarises the recent analog readings.
type ReadingStats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    uint16
	Max    uint16
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Display       display.State
	Ready         bool
	Readings      ReadingStats
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu       sync.RWMutex
	snap     Snapshot
	readings [ReadingWindow]float64
	head     int
	count    int
}

// NewTracker creates a Tracker with the given start time and config.
// Each tracker gets a fresh boot ID.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			BootID:    uuid.New().String(),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest engine state.
// Called from the dispatcher loop after every handler.
func (t *Tracker) Update(st display.State) {
	t.mu.Lock()
	t.snap.Display = st
	t.snap.Ready = st.Counts.Samples > 0
	t.mu.Unlock()
}

// AddReading records an analog reading in the statistics window.
func (t *Tracker) AddReading(r uint16) {
	t.mu.Lock()
	t.readings[t.head] = float64(r)
	t.head = (t.head + 1) % ReadingWindow
	if t.count < ReadingWindow {
		t.count++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	window := make([]float64, t.count)
	copy(window, t.readings[:t.count])
	t.mu.RUnlock()

	s.Readings = readingStats(window)
	s.Now = time.Now()
	return s
}

func readingStats(window []float64) ReadingStats {
	rs := ReadingStats{N: len(window)}
	if len(window) == 0 {
		return rs
	}

	if len(window) == 1 {
		rs.Mean = window[0]
	} else {
		rs.Mean, rs.StdDev = stat.MeanStdDev(window, nil)
	}

	lo, hi := window[0], window[0]
	for _, v := range window[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	rs.Min, rs.Max = uint16(lo), uint16(hi)
	return rs
}

package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode"`
	LEDs          string       `json:"leds"`
	Sweep         SweepJSON    `json:"sweep"`
	Input         InputJSON    `json:"input"`
	Speed         SpeedJSON    `json:"speed"`
	Ready         bool         `json:"ready"`
	BootID        string       `json:"boot_id"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Readings      ReadingsJSON `json:"readings"`
	Config        ConfigJSON   `json:"config"`
}

// SweepJSON reports the eye position.
type SweepJSON struct {
	Position  int    `json:"position"`
	Direction string `json:"direction"`
}

// InputJSON reports the last analog reading and button state.
type InputJSON struct {
	Reading uint16 `json:"reading"`
	Level   int    `json:"level"`
	Button  bool   `json:"button_pressed"`
}

// SpeedJSON reports the double-buffered frame period.
type SpeedJSON struct {
	Active   string `json:"active"`
	Buffered string `json:"buffered"`
	PeriodMs int64  `json:"period_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of handler counts.
type CountsJSON struct {
	SweepTicks       int `json:"sweep_ticks"`
	ModeFlips        int `json:"mode_flips"`
	Samples          int `json:"samples"`
	OverlaysRendered int `json:"overlays_rendered"`
	OverlaysSkipped  int `json:"overlays_skipped"`
	PresetChanges    int `json:"preset_changes"`
}

// ReadingsJSON summarises recent readings.
type ReadingsJSON struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    uint16  `json:"min"`
	Max    uint16  `json:"max"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Output      string `json:"output"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	IntervalMs  int64  `json:"interval_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Display
	period := int64(0)
	if d.Active != "" {
		period = d.Active.Period().Milliseconds()
	}

	return StatusInner{
		Mode: orUnknown(string(d.Mode)),
		LEDs: d.LEDs.String(),
		Sweep: SweepJSON{
			Position:  d.Position,
			Direction: orUnknown(string(d.Direction)),
		},
		Input: InputJSON{
			Reading: d.Last.Reading,
			Level:   int(d.Last.Level),
			Button:  d.Pressed,
		},
		Speed: SpeedJSON{
			Active:   orUnknown(string(d.Active)),
			Buffered: orUnknown(string(d.Buffered)),
			PeriodMs: period,
		},
		Ready:         snap.Ready,
		BootID:        snap.BootID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			SweepTicks:       d.Counts.SweepTicks,
			ModeFlips:        d.Counts.ModeFlips,
			Samples:          d.Counts.Samples,
			OverlaysRendered: d.Counts.OverlaysRendered,
			OverlaysSkipped:  d.Counts.OverlaysSkipped,
			PresetChanges:    d.Counts.PresetChanges,
		},
		Readings: ReadingsJSON{
			N:      snap.Readings.N,
			Mean:   round2(snap.Readings.Mean),
			StdDev: round2(snap.Readings.StdDev),
			Min:    snap.Readings.Min,
			Max:    snap.Readings.Max,
		},
		Config: ConfigJSON{
			Output:      snap.Config.Output,
			HeartbeatMs: snap.Config.HeartbeatMs,
			IntervalMs:  snap.Config.IntervalMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/cylon-meter/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"millis": func(d time.Duration) string {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Cylon Meter</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.leds { display: flex; gap: 6px; margin: 1em 0; }
.led { width: 24px; height: 24px; border-radius: 50%; border: 1px solid #600; }
.led.on { background: red; }
.led.off { background: #300; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Cylon Meter</h1>

<div class="leds" id="leds">{{range $i, $on := .Display.LEDs}}<span class="led {{if $on}}on{{else}}off{{end}}" title="LED {{$i}}"></span>{{end}}</div>

<h2>Display</h2>
<table>
<tr><th>Mode</th><td id="mode">{{orUnknown (printf "%s" .Display.Mode)}}</td></tr>
<tr><th>Eye</th><td>{{.Display.Position}} moving {{orUnknown (printf "%s" .Display.Direction)}}</td></tr>
<tr><th>Speed</th><td id="speed">{{orUnknown (printf "%s" .Display.Active)}}{{if .Display.Active}} ({{millis .Display.Active.Period}}){{end}}</td></tr>
<tr><th>Next speed</th><td>{{orUnknown (printf "%s" .Display.Buffered)}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Input</h2>
<table>
<tr><th>Reading</th><td id="reading">{{.Display.Last.Reading}}</td></tr>
<tr><th>Level</th><td id="level">{{.Display.Last.Level}}</td></tr>
<tr><th>Button</th><td>{{if .Display.Pressed}}held{{else}}released{{end}}</td></tr>
<tr><th>Recent readings</th><td>{{if .Readings.N}}{{printf "%.1f" .Readings.Mean}} &plusmn; {{printf "%.1f" .Readings.StdDev}} ({{.Readings.Min}}..{{.Readings.Max}}, n={{.Readings.N}}){{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Sweep ticks</th><td>{{.Display.Counts.SweepTicks}}</td></tr>
<tr><th>Mode flips</th><td>{{.Display.Counts.ModeFlips}}</td></tr>
<tr><th>Samples</th><td>{{.Display.Counts.Samples}}</td></tr>
<tr><th>Overlays drawn</th><td>{{.Display.Counts.OverlaysRendered}}</td></tr>
<tr><th>Overlays skipped</th><td>{{.Display.Counts.OverlaysSkipped}}</td></tr>
<tr><th>Speed changes</th><td>{{.Display.Counts.PresetChanges}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Output</th><td>{{.Config.Output}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}

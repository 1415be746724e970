package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/light-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onoff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"channels": status.ChannelList,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Light Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Light Controller</h1>

<h2>Signals</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>Left</th><td class="{{if .Latched.Left}}on{{else}}off{{end}}">{{onoff .Latched.Left}}</td></tr>
<tr><th>Right</th><td class="{{if .Latched.Right}}on{{else}}off{{end}}">{{onoff .Latched.Right}}</td></tr>
<tr><th>Hazard</th><td class="{{if .Latched.Hazard}}on{{else}}off{{end}}">{{onoff .Latched.Hazard}}</td></tr>
</table>

<h2>Channels</h2>
<table>
<tr><th>Active inputs</th><td id="inputs">{{channels .Inputs.Channels}}</td></tr>
<tr><th>Faulted outputs</th><td id="faults" class="{{if .Faults}}fault{{end}}">{{channels .Faults.Channels}}</td></tr>
<tr><th>Fault lines</th><td>{{.FaultLines}}</td></tr>
<tr><th>Scans</th><td>{{.Scans}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Transitions</h2>
<table>
<tr><th>LEFT ON / OFF</th><td>{{.Counts.LeftOn}} / {{.Counts.LeftOff}}</td></tr>
<tr><th>RIGHT ON / OFF</th><td>{{.Counts.RightOn}} / {{.Counts.RightOff}}</td></tr>
<tr><th>HAZARD ON / OFF</th><td>{{.Counts.HazardOn}} / {{.Counts.HazardOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Run mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO chip</th><td>{{.Config.Chip}}</td></tr>
{{if .Config.Expander}}<tr><th>Output expander</th><td>{{.Config.Expander}}</td></tr>{{end}}
{{if .Config.Serial}}<tr><th>Diagnostics</th><td>{{.Config.Serial}}</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// The template needs Uptime as a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

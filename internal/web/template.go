package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/valve-controller/internal/status"
	"github.com/sweeney/valve-controller/internal/valve"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Valve Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: green; font-weight: bold; }
.closed { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Valve Controller</h1>

<h2>Valves</h2>
<table>
<tr><th>Valve</th><th>Description</th><th>Status</th></tr>
{{range .Reports}}<tr><td>{{.ID}}</td><td>{{.Description}}</td><td class="{{.State}}">{{.State}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Snap.Config.Broker}}</td></tr>
{{if .Snap.Network}}<tr><th>Network</th><td>{{.Snap.Network.Status}} ({{.Snap.Network.Type}}{{if .Snap.Network.SSID}}, {{.Snap.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Snap.Network.IP}}</td></tr>{{end}}
</table>

<h2>Command Counts</h2>
<table>
<tr><th>Opened</th><td>{{.Snap.Counts.Opened}}</td></tr>
<tr><th>Closed</th><td>{{.Snap.Counts.Closed}}</td></tr>
<tr><th>Close all</th><td>{{.Snap.Counts.ClosedAll}}</td></tr>
<tr><th>Conflicts rejected</th><td>{{.Snap.Counts.Conflicts}}</td></tr>
<tr><th>Unknown valve</th><td>{{.Snap.Counts.UnknownValve}}</td></tr>
<tr><th>Malformed</th><td>{{.Snap.Counts.Malformed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.Snap.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Valves configured</th><td>{{.Snap.Config.ValveCount}}</td></tr>
<tr><th>HTTP</th><td>{{.Snap.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, reports []valve.Report, snap status.Snapshot) {
	data := struct {
		Reports []valve.Report
		Snap    status.Snapshot
		Uptime  time.Duration
	}{
		Reports: reports,
		Snap:    snap,
		Uptime:  snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

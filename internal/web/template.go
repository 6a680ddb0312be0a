package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/status"
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
	"stamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
	"breached": sensor.Breached,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Air Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.alarm { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Air Monitor</h1>

<h2>Air Quality</h2>
<table>
{{with .AirQuality}}{{if $.AirQualityAt.IsZero}}<tr><th>Sample</th><td class="unknown">none yet</td></tr>
{{else if .Valid}}<tr><th>eCO2</th><td id="eco2" class="{{if breached .ECO2}}alarm{{else}}ok{{end}}">{{.ECO2}} ppm</td></tr>
<tr><th>TVOC</th><td id="tvoc">{{.TVOC}} ppb</td></tr>
{{if or .RawH2 .RawEthanol}}<tr><th>Raw H2</th><td>{{.RawH2}}</td></tr>
<tr><th>Raw Ethanol</th><td>{{.RawEthanol}}</td></tr>
{{end}}<tr><th>Sampled</th><td>{{stamp $.AirQualityAt}}</td></tr>
{{else}}<tr><th>Sample</th><td class="alarm">failed: {{.Err}}</td></tr>
{{end}}{{end}}</table>

<h2>Weather</h2>
<table>
{{with .Weather}}{{if $.WeatherAt.IsZero}}<tr><th>Weather</th><td class="unknown">none yet</td></tr>
{{else if .Valid}}<tr><th>Conditions</th><td>{{.Description}}</td></tr>
<tr><th>Temperature</th><td>{{.TempF}} &deg;F</td></tr>
<tr><th>Pressure</th><td>{{.PressureHPa}} hPa</td></tr>
<tr><th>Humidity</th><td>{{.HumidityPct}}%</td></tr>
<tr><th>Wind</th><td>{{.WindMph}} mph</td></tr>
<tr><th>Fetched</th><td>{{stamp $.WeatherAt}}</td></tr>
{{else}}<tr><th>Weather</th><td class="alarm">unavailable</td></tr>
{{end}}{{end}}</table>

<h2>Alert</h2>
<table>
<tr><th>Phase</th><td id="alert-phase" class="{{if eq (printf "%s" .AlertPhase) "IDLE"}}ok{{else}}alarm{{end}}">{{.AlertPhase}}</td></tr>
{{if .AlertECO2}}<tr><th>Alert eCO2</th><td>{{.AlertECO2}} ppm</td></tr>{{end}}
<tr><th>Triggered</th><td>{{.Alerts.Triggered}}</td></tr>
<tr><th>Dismissed</th><td>{{.Alerts.Dismissed}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{stamp .StartTime}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

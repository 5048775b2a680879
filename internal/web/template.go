package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/microwave/internal/status"
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
	"ms": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return (time.Duration(ms) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Microwave</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.display { font-size: 2em; background: #111; color: #3f3; padding: 0.3em 0.6em; min-height: 1.2em; }
.cooking { color: #c60; font-weight: bold; }
.open { color: red; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Microwave<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<div id="display" class="display">{{.Display}}</div>

<h2>Panel</h2>
<table>
<tr><th>State</th><td id="state" class="{{if eq .State "COOKING"}}cooking{{end}}">{{.State}}</td></tr>
<tr><th>Power</th><td id="power">{{.Oven.Power}} W</td></tr>
<tr><th>Minutes</th><td id="minutes">{{.Oven.Minutes}}</td></tr>
<tr><th>Door</th><td id="door" class="{{if .Oven.DoorOpen}}open{{end}}">{{if .Oven.DoorOpen}}OPEN{{else}}CLOSED{{end}}</td></tr>
<tr><th>Cooker</th><td id="cooker">{{.Oven.Cooker}}</td></tr>
<tr><th>Remaining</th><td id="remaining">{{.Oven.Remaining}}s</td></tr>
</table>

<h2>Cycles</h2>
<table>
<tr><th>Started</th><td id="started">{{.Counts.Started}}</td></tr>
<tr><th>Completed</th><td id="completed">{{.Counts.Completed}}</td></tr>
<tr><th>Cancelled</th><td id="cancelled">{{.Counts.Cancelled}}</td></tr>
{{with .LastCycle}}<tr><th>Last</th><td>{{.Cycle.Power}} W for {{.Cycle.Seconds}}s, {{.Reason}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{ms .Config.TickMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>GPIO</th><td>{{if .Config.GPIO}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function set(id, text) { document.getElementById(id).textContent = text; }
  function setDot(cls, title) { dot.className = "live-dot " + cls; dot.title = title; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/ws?interval=500ms");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 5000); };
    ws.onmessage = function(e) {
      try {
        var msg = JSON.parse(e.data);
        if (msg.type !== "status") { return; }
        var o = msg.data.oven;
        set("display", o.display);
        set("state", o.state);
        document.getElementById("state").className = o.state === "COOKING" ? "cooking" : "";
        set("power", o.power + " W");
        set("minutes", o.minutes);
        set("door", o.door);
        document.getElementById("door").className = o.door === "OPEN" ? "open" : "";
        set("cooker", o.cooker);
        set("remaining", o.remaining_seconds + "s");
        set("started", msg.data.cycle_counts.started);
        set("completed", msg.data.cycle_counts.completed);
        set("cancelled", msg.data.cycle_counts.cancelled);
      } catch (err) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	state := string(snap.Oven.State)
	if state == "" {
		state = "UNKNOWN"
	}
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		State   string
		Display string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		State:    state,
		Display:  status.DisplayText(snap.Oven),
	}
	return indexTmpl.Execute(w, data)
}

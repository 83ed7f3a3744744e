package health

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderDashboardHTML returns the HTML status page for GET /.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	jsonStr := string(b)
	// Escape for embedding in a JS template literal: \ ` $
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")
	jsonStr = strings.ReplaceAll(jsonStr, "</", "<\\/")

	lastReqMethod, lastReqPath, lastReqIP := "-", "-", "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastReqMethod = v
		}
		if v, ok := m["path"].(string); ok {
			lastReqPath = v
		}
		if v, ok := m["ip"].(string); ok {
			lastReqIP = v
		}
	}

	var deps strings.Builder
	for _, name := range health.DependencyNames() {
		d := health.Dependencies[name]
		class := "err"
		if d.Status == "connected" || d.Status == "reachable" {
			class = "ok"
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="ping-%s">%s</span></span></div>`,
			html.EscapeString(name), html.EscapeString(name), class, html.EscapeString(name), html.EscapeString(d.Status))
	}

	var feeds strings.Builder
	names := make([]string, 0, len(health.Realtime))
	for k := range health.Realtime {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&feeds, `<div class="row"><span>%s</span><span>%d</span></div>`, html.EscapeString(k), health.Realtime[k])
	}

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Pettie · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --brand: #E07A5F; --dark: #3D405B; --ok: #2A9D8F; --bg: #F8F9FA; --muted: #64748b; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--dark); font-family: system-ui, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 1000px; margin: 0 auto; }
    h1 { font-size: 42px; font-weight: 900; letter-spacing: -2px; margin: 0 0 24px; }
    .card { background: white; border-radius: 24px; box-shadow: 0 20px 60px -20px rgba(61,64,91,0.2); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 32px; border-right: 1px solid rgba(0,0,0,0.05); }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid rgba(0,0,0,0.03); font-size: 14px; font-weight: 700; }
    .pill { padding: 4px 10px; border-radius: 10px; font-size: 11px; font-weight: 900; display: flex; align-items: center; gap: 6px; }
    .ok { background: rgba(42,157,143,0.1); color: var(--ok); }
    .err { background: rgba(239,68,68,0.1); color: #EF4444; }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .footer { background: rgba(61,64,91,0.03); padding: 16px 32px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; }
    a { color: var(--brand); font-weight: 800; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline">` + headline + `</h1>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + html.EscapeString(health.Traffic.SuccessRate) + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + html.EscapeString(fmt.Sprint(health.Traffic.AvgResponseTime)) + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">` + fmt.Sprint(health.Runtime.UptimeSeconds) + `s</div>
          <div class="row"><span>Heap Used</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Platform</span><span>` + html.EscapeString(health.Runtime.Platform) + `</span></div>
          <div class="label" style="margin-top:24px">Live feeds</div>
          ` + feeds.String() + `
        </div>
        <div class="col">
          <div class="label">Connectivity</div>
          ` + deps.String() + `
        </div>
      </div>
      <div class="footer">
        <span id="req-method">` + html.EscapeString(lastReqMethod) + `</span>
        <span id="req-path">` + html.EscapeString(lastReqPath) + `</span>
        <span id="req-ip">` + html.EscapeString(lastReqIP) + `</span>
      </div>
    </div>
    <p><a href="/health/errors">Error log</a> · <a href="/health/json">JSON</a></p>
  </div>
  <script>
    const initial = JSON.parse(` + "`" + jsonStr + "`" + `);
    const set = (id, v) => { const el = document.getElementById(id); if (el) el.innerText = v; };
    const render = (d) => {
      set('headline', d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected');
      set('total-req', d.traffic.totalRequests);
      set('success-count', d.traffic.successCount);
      set('failed-count', d.traffic.failedCount);
      set('success-rate', d.traffic.successRate + '%');
      set('avg-time', d.traffic.avgResponseTime + 'ms');
      set('uptime', d.runtime.uptimeSeconds + 's');
      set('mem-heap', d.runtime.memory.heapUsed + ' MB');
      set('goroutines', d.runtime.goroutines);
      for (const [name, dep] of Object.entries(d.dependencies)) {
        const pill = document.getElementById('pill-' + name);
        if (!pill) continue;
        const ok = dep.status === 'connected' || dep.status === 'reachable';
        pill.className = 'pill ' + (ok ? 'ok' : 'err');
        set('ping-' + name, dep.pingMs != null ? dep.pingMs + ' ms' : dep.status);
      }
    };
    render(initial);
    setInterval(async () => { try { const r = await fetch('/health/json'); render(await r.json()); } catch (e) {} }, 10000);
  </script>
</body>
</html>`
}

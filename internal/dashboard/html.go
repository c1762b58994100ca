package dashboard

// indexHTML is the control surface served at /. It subscribes to the
// SSE feed and drives the control endpoints; 3D rendering engines hook
// into the same endpoints from their own pages.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Digital Twin Dashboard</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #1b1e24; color: #e8e8e8; }
  h1 { font-size: 1.3em; }
  .panel { background: #262b33; border-radius: 8px; padding: 1em 1.5em; margin-bottom: 1em; max-width: 34em; }
  .row { display: flex; align-items: center; gap: 1em; margin: 0.6em 0; }
  .row label { width: 10em; }
  .swatch { display: inline-block; width: 1.1em; height: 1.1em; border-radius: 3px; vertical-align: middle; }
  .blink { animation: blink 1s step-start infinite; }
  @keyframes blink { 50% { opacity: 0.2; } }
  #message { color: #ff8866; }
  select, input[type=range] { flex: 1; }
</style>
</head>
<body>
<h1>Digital Twin Dashboard</h1>

<div class="panel">
  <div class="row"><label>Framework</label><select id="framework"></select></div>
  <div class="row"><label>Entity</label>
    <select id="entity">
      <option value="all">all</option>
      <option>Mixer1</option><option>Mixer2</option><option>Mixer3</option>
      <option>Mixer4</option><option>Mixer5</option><option>Mixer6</option>
    </select>
  </div>
  <div id="message"></div>
</div>

<div class="panel">
  <div class="row"><label>Temperature</label>
    <input type="range" id="temperature" min="0" max="300" step="1">
    <span id="temperature-value"></span><span id="temperature-color" class="swatch"></span>
  </div>
  <div class="row"><label>RPM</label>
    <input type="range" id="rpm" min="0" max="240" step="1">
    <span id="rpm-value"></span>
  </div>
  <div class="row"><label>Alarm</label>
    <select id="alarm">
      <option>NORMAL</option><option>ACTIVE</option><option>ACKNOWLEDGED</option>
    </select>
    <span id="alarm-color" class="swatch"></span>
  </div>
  <div class="row"><label>Flow rate</label>
    <input type="range" id="flow" min="0" max="100" step="1">
    <span id="flow-value"></span><span id="flow-color" class="swatch"></span>
  </div>
</div>

<div class="panel">
  <div class="row"><label>FPS</label><span id="m-fps"></span></div>
  <div class="row"><label>Memory (MB)</label><span id="m-mem"></span></div>
  <div class="row"><label>Latency (ms)</label><span id="m-lat"></span></div>
  <div class="row"><a href="/api/metrics/csv" download>Download CSV</a></div>
</div>

<script>
const controls = {
  temperature: { feature: "Mixer", property: "Temperature" },
  rpm:         { feature: "Mixer", property: "RPM" },
  alarm:       { feature: "Alarm", property: "alarm_status" },
  flow:        { feature: "Flow",  property: "flow_rate" },
};

function send(id, value, commit) {
  const c = controls[id];
  fetch("/api/controls/" + c.feature + "/" + c.property + (commit ? "?commit=true" : ""), {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ value: value }),
  });
}

for (const id of ["temperature", "rpm", "flow"]) {
  const el = document.getElementById(id);
  el.addEventListener("input",  () => send(id, Number(el.value), false));
  el.addEventListener("change", () => send(id, Number(el.value), true));
}
document.getElementById("alarm").addEventListener("change", (e) => send("alarm", e.target.value, true));

document.getElementById("entity").addEventListener("change", (e) =>
  fetch("/api/entity/" + e.target.value, { method: "POST" }));

fetch("/api/frameworks").then(r => r.json()).then(d => {
  const sel = document.getElementById("framework");
  for (const id of d.frameworks) sel.add(new Option(id, id));
  sel.addEventListener("change", () =>
    fetch("/api/framework/" + sel.value, { method: "POST" }));
});

const dragging = new Set();
for (const id of ["temperature", "rpm", "flow"]) {
  const el = document.getElementById(id);
  el.addEventListener("pointerdown", () => dragging.add(id));
  el.addEventListener("pointerup",   () => dragging.delete(id));
}

const events = new EventSource("/api/events");
events.onmessage = (e) => {
  const frame = JSON.parse(e.data);
  if (!dragging.has("temperature")) document.getElementById("temperature").value = frame.temperature;
  if (!dragging.has("rpm"))         document.getElementById("rpm").value = frame.rpm;
  if (!dragging.has("flow"))        document.getElementById("flow").value = frame.flowRate;
  document.getElementById("temperature-value").textContent = frame.temperature.toFixed(0);
  document.getElementById("rpm-value").textContent = frame.rpm.toFixed(0);
  document.getElementById("flow-value").textContent = frame.flowRate.toFixed(0);
  document.getElementById("temperature-color").style.background = frame.visuals.temperature.Color;
  document.getElementById("flow-color").style.background = frame.visuals.flow.Color;
  const alarm = document.getElementById("alarm-color");
  alarm.style.background = frame.visuals.alarm.Color;
  alarm.className = "swatch" + (frame.visuals.alarm.Blink ? " blink" : "");
};

setInterval(() => {
  fetch("/api/status").then(r => r.json()).then(s => {
    document.getElementById("message").textContent = s.message;
    document.getElementById("m-fps").textContent = s.metrics.meanFps;
    document.getElementById("m-mem").textContent = s.metrics.meanMemoryMb;
    document.getElementById("m-lat").textContent = s.metrics.meanLatencyMs;
  });
}, 2000);
</script>
</body>
</html>
`

package httpapi

import (
	"fmt"
	"net/http"
)

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>FieldCheck</title>
  <style>
    :root {
      --ink: #1c2431;
      --paper: #f6f7f4;
      --card: #ffffff;
      --line: #d8dcd2;
      --accent: #2e7d60;
      --danger: #b44a3c;
      --muted: #70796f;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Segoe UI", "Avenir Next", sans-serif;
      color: var(--ink);
      background: var(--paper);
      padding: 20px;
    }
    .shell { max-width: 860px; margin: 0 auto; display: grid; gap: 12px; }
    .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 14px;
    }
    h1 { margin: 0; font-size: 1.4rem; }
    .muted { color: var(--muted); font-size: 0.85rem; }
    .status { font-weight: 600; }
    .status.error { color: var(--danger); }
    .status.synced { color: var(--accent); }
    input { padding: 6px 8px; border: 1px solid var(--line); border-radius: 8px; width: 100%; }
    pre { white-space: pre-wrap; font-size: 0.8rem; margin: 0; }
  </style>
</head>
<body>
  <div class="shell">
    <div class="card">
      <h1>FieldCheck</h1>
      <div class="muted">site review checklist · cloud sync status</div>
    </div>
    <div class="card">
      <label class="muted" for="token">bearer token</label>
      <input id="token" type="password" placeholder="paste token" />
    </div>
    <div class="card">
      <div>sync: <span id="sync" class="status">unknown</span></div>
      <div class="muted" id="syncError"></div>
    </div>
    <div class="card">
      <div class="muted">checklist</div>
      <pre id="state">enter token to load state</pre>
    </div>
  </div>
  <script>
    (() => {
      const token = document.getElementById("token");
      const sync = document.getElementById("sync");
      const syncError = document.getElementById("syncError");
      const state = document.getElementById("state");

      const headers = () => ({
        "Authorization": "Bearer " + token.value.trim(),
        "X-Correlation-Id": "dash_" + Date.now(),
      });

      const refresh = async () => {
        if (!token.value.trim()) return;
        try {
          const resp = await fetch("/v1/checklist", { headers: headers() });
          if (!resp.ok) throw new Error("status " + resp.status);
          const payload = await resp.json();
          sync.textContent = payload.sync.status;
          sync.className = "status " + payload.sync.status;
          syncError.textContent = payload.sync.lastError || "";
          state.textContent = JSON.stringify(payload, null, 2);
        } catch (err) {
          sync.textContent = "unreachable";
          sync.className = "status error";
          syncError.textContent = String(err);
        }
      };

      token.value = window.localStorage.getItem("fieldcheck_dashboard_token") || "";
      token.addEventListener("change", () => {
        window.localStorage.setItem("fieldcheck_dashboard_token", token.value);
        refresh();
      });
      setInterval(refresh, 5000);
      refresh();
    })();
  </script>
</body>
</html>`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, dashboardHTML)
}

const weatherDashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>NC Trout Water</title>
  <style>
    body {
      margin: 0;
      font-family: "Segoe UI", "Avenir Next", sans-serif;
      color: #15241f;
      background: #eef4ef;
      padding: 20px;
    }
    .shell { max-width: 720px; margin: 0 auto; display: grid; gap: 12px; }
    .card { background: #fff; border: 1px solid #cfdcd2; border-radius: 12px; padding: 14px; }
    h1 { margin: 0; font-size: 1.4rem; }
    .muted { color: #5f6f66; font-size: 0.85rem; }
    select { padding: 6px 8px; border: 1px solid #cfdcd2; border-radius: 8px; width: 100%; }
    pre { white-space: pre-wrap; font-size: 0.8rem; margin: 0; }
  </style>
</head>
<body>
  <div class="shell">
    <div class="card">
      <h1>NC Trout Water</h1>
      <div class="muted">river stage and forecast for western North Carolina trout streams</div>
    </div>
    <div class="card"><select id="location"></select></div>
    <div class="card"><div class="muted">river</div><pre id="river">loading…</pre></div>
    <div class="card"><div class="muted">forecast</div><pre id="forecast">loading…</pre></div>
  </div>
  <script>
    (() => {
      const locationSelect = document.getElementById("location");
      const river = document.getElementById("river");
      const forecast = document.getElementById("forecast");

      const show = async (target, path) => {
        try {
          const resp = await fetch(path);
          const payload = await resp.json();
          target.textContent = JSON.stringify(payload, null, 2);
        } catch (err) {
          target.textContent = String(err);
        }
      };

      const refresh = () => {
        const id = locationSelect.value;
        if (!id) return;
        show(river, "/v1/weather/" + id + "/river");
        show(forecast, "/v1/weather/" + id + "/forecast");
      };

      fetch("/v1/weather/locations")
        .then((resp) => resp.json())
        .then((payload) => {
          for (const loc of payload.locations) {
            const option = document.createElement("option");
            option.value = loc.id;
            option.textContent = loc.name + " · " + loc.city;
            locationSelect.appendChild(option);
          }
          refresh();
        });
      locationSelect.addEventListener("change", refresh);
    })();
  </script>
</body>
</html>`

func (s *WeatherServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, weatherDashboardHTML)
}

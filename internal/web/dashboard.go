// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package web

import (
	"io"
	"net/http"
)

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, dashboardHTML)
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>fermenator</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #1b1b1b; color: #eee; }
  h1 { font-weight: normal; }
  table { border-collapse: collapse; width: 100%; max-width: 60em; }
  th, td { text-align: left; padding: 0.5em 1em; border-bottom: 1px solid #444; }
  th { color: #999; font-weight: normal; }
  .heating { color: #ff8a65; }
  .cooling { color: #4fc3f7; }
  .idle { color: #aaa; }
  .stale { opacity: 0.5; }
  a { color: #8ab4f8; }
</style>
</head>
<body>
<h1>fermenator</h1>
<table>
  <thead>
    <tr>
      <th>vessel</th><th>state</th><th>temperature</th><th>target</th>
      <th>gravity</th><th>progress</th><th>duty</th><th>last report</th>
    </tr>
  </thead>
  <tbody id="vessels"></tbody>
</table>
<p><a href="/vessels">JSON</a> &middot; <a href="/debug/status">status</a> &middot; <a href="/debug/logs">logs</a></p>
<script>
const rows = {};

function fmt(v, digits) {
  return (v === null || v === undefined) ? "-" : v.toFixed(digits);
}

function render(st) {
  let tr = rows[st.vessel];
  if (!tr) {
    tr = document.createElement("tr");
    rows[st.vessel] = tr;
    document.getElementById("vessels").appendChild(tr);
  }
  const duty = st.heating ? st.heat_duty : (st.cooling ? st.cool_duty : null);
  const progress = (st.progress === null || st.progress === undefined)
    ? "-" : Math.round(st.progress * 100) + "%";
  tr.className = st.state;
  tr.innerHTML =
    "<td><a href='/chart/" + st.vessel + ".png'>" + st.vessel + "</a></td>" +
    "<td>" + st.state + "</td>" +
    "<td>" + fmt(st.temperature, 1) + " C</td>" +
    "<td>" + fmt(st.target, 1) + " C</td>" +
    "<td>" + fmt(st.gravity, 3) + "</td>" +
    "<td>" + progress + "</td>" +
    "<td>" + (duty === null || duty === undefined ? "-" : Math.round(duty * 100) + "%") + "</td>" +
    "<td>" + new Date(st.heartbeat).toLocaleTimeString() + "</td>";
}

function load() {
  fetch("/vessels")
    .then((resp) => resp.json())
    .then((states) => states.forEach(render))
    .catch(() => {});
}

function connect() {
  const proto = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = (ev) => render(JSON.parse(ev.data));
  ws.onclose = () => setTimeout(connect, 3000);
}

load();
connect();
</script>
</body>
</html>
`

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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/prairiedogbeer/fermenator/internal/chart"
	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/internal/logging"
)

var indexPages = []struct{ path, desc string }{
	{"/dashboard", "live vessel dashboard"},
	{"/vessels", "vessel state snapshot (JSON)"},
	{"/ws", "live vessel state feed (websocket)"},
	{"/chart/{vessel}.png", "temperature history chart"},
	{"/debug/status", "process resource usage"},
	{"/debug/logs", "recent log lines"},
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<!DOCTYPE html><html><head><title>fermenator</title></head><body>")
	fmt.Fprintln(w, "<h1>fermenator</h1><ul>")
	for _, page := range indexPages {
		fmt.Fprintf(w, `<li><a href="%s">%s</a> - %s</li>`, page.path, page.path, page.desc)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "</ul></body></html>")
}

func (s *Service) handleVessels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.snapshot())
}

func (s *Service) handleVessel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ev, ok := s.bus.GetLast(events.VesselTopic(name))
	if !ok {
		http.Error(w, "no state for vessel "+name, http.StatusNotFound)
		return
	}
	st, ok := ev.(events.VesselState)
	if !ok {
		http.Error(w, "no state for vessel "+name, http.StatusNotFound)
		return
	}
	s.writeJSON(w, st)
}

func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	if s.charts == nil {
		http.Error(w, "chart storage not configured", http.StatusNotFound)
		return
	}
	name := mux.Vars(r)["name"]

	to := time.Now()
	from := to.Add(-s.charts.Window())
	if q := r.URL.Query().Get("window"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d <= 0 {
			http.Error(w, "bad window: "+q, http.StatusBadRequest)
			return
		}
		from = to.Add(-d)
	}

	// Render to memory first so a failure can still become a clean
	// error response.
	var buf bytes.Buffer
	if err := s.charts.Render(r.Context(), name, from, to, &buf); err != nil {
		if errors.Is(err, chart.ErrNotEnoughData) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("vessel", name).Msg("chart render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Service) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, strings.Join(logging.Tail.Lines(), "\n"))
}

func (s *Service) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/chart"
	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/internal/logging"
	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/internal/storage"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
)

type fakeHistory struct {
	rows map[string][]storage.ReadingRow
}

func (f *fakeHistory) ReadingsBetween(ctx context.Context, vessel, kind string, from, to time.Time) ([]storage.ReadingRow, error) {
	var out []storage.ReadingRow
	for _, row := range f.rows[kind] {
		if row.Vessel == vessel {
			out = append(out, row)
		}
	}
	return out, nil
}

func ptr(v float64) *float64 { return &v }

func newTestWeb(t *testing.T, charts *chart.Renderer) (*Service, *eventbus.Bus, *httptest.Server) {
	t.Helper()
	bus := eventbus.New()
	s := NewService(Config{}, bus, []string{"fv1", "fv2"}, charts, zerolog.Nop())
	ts := httptest.NewServer(s.router())
	t.Cleanup(func() {
		ts.Close()
		bus.Close()
	})
	return s, bus, ts
}

func publish(bus *eventbus.Bus, st events.VesselState) {
	bus.Publish(events.VesselTopic(st.Vessel), st)
	bus.Publish(events.TopicVesselState, st)
}

func sampleState(vessel string, temp float64) events.VesselState {
	return events.VesselState{
		Vessel:      vessel,
		State:       events.StateHeating,
		Heating:     true,
		Heartbeat:   time.Now(),
		Temperature: ptr(temp),
		Target:      ptr(19.0),
	}
}

func TestVesselsSnapshot(t *testing.T) {
	_, bus, ts := newTestWeb(t, nil)
	publish(bus, sampleState("fv1", 18.2))
	publish(bus, sampleState("fv2", 20.1))

	resp, err := http.Get(ts.URL + "/vessels")
	if err != nil {
		t.Fatalf("GET /vessels: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var states []events.VesselState
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2: %+v", len(states), states)
	}
	if states[0].Vessel != "fv1" || *states[0].Temperature != 18.2 {
		t.Errorf("state 0 = %+v", states[0])
	}
}

func TestVesselByName(t *testing.T) {
	_, bus, ts := newTestWeb(t, nil)
	publish(bus, sampleState("fv1", 18.2))

	resp, err := http.Get(ts.URL + "/vessels/fv1")
	if err != nil {
		t.Fatalf("GET /vessels/fv1: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st events.VesselState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Vessel != "fv1" || st.State != events.StateHeating {
		t.Errorf("state = %+v", st)
	}

	missing, err := http.Get(ts.URL + "/vessels/fv9")
	if err != nil {
		t.Fatalf("GET /vessels/fv9: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unknown vessel status = %d, want 404", missing.StatusCode)
	}
}

func TestChartEndpoint(t *testing.T) {
	now := time.Now()
	rows := make([]storage.ReadingRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, storage.ReadingRow{
			Vessel:     "fv1",
			Kind:       readings.KindTemperature,
			Value:      18.0 + float64(i)*0.1,
			ObservedAt: now.Add(time.Duration(i-5) * time.Minute),
		})
	}
	charts := chart.NewRenderer(&fakeHistory{rows: map[string][]storage.ReadingRow{
		readings.KindTemperature: rows,
	}}, chart.Config{})
	_, _, ts := newTestWeb(t, charts)

	resp, err := http.Get(ts.URL + "/chart/fv1.png")
	if err != nil {
		t.Fatalf("GET chart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) < 4 || string(body[:4]) != "\x89PNG" {
		t.Error("body is not a PNG")
	}

	empty, err := http.Get(ts.URL + "/chart/fv2.png")
	if err != nil {
		t.Fatalf("GET empty chart: %v", err)
	}
	defer empty.Body.Close()
	if empty.StatusCode != http.StatusNotFound {
		t.Errorf("empty history status = %d, want 404", empty.StatusCode)
	}

	bad, err := http.Get(ts.URL + "/chart/fv1.png?window=yesterday")
	if err != nil {
		t.Fatalf("GET bad window: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad window status = %d, want 400", bad.StatusCode)
	}
}

func TestChartWithoutStorage(t *testing.T) {
	_, _, ts := newTestWeb(t, nil)
	resp, err := http.Get(ts.URL + "/chart/fv1.png")
	if err != nil {
		t.Fatalf("GET chart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without storage", resp.StatusCode)
	}
}

func TestIndexAndDashboard(t *testing.T) {
	_, _, ts := newTestWeb(t, nil)

	for _, path := range []string{"/", "/dashboard"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), "fermenator") {
			t.Errorf("%s does not mention the service", path)
		}
	}
}

func TestDebugLogsServesTail(t *testing.T) {
	_, _, ts := newTestWeb(t, nil)
	logging.Tail.Write([]byte("marker line for the web test\n"))

	resp, err := http.Get(ts.URL + "/debug/logs")
	if err != nil {
		t.Fatalf("GET /debug/logs: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "marker line for the web test") {
		t.Error("tail line missing from /debug/logs")
	}
}

func TestWebSocketFeed(t *testing.T) {
	s, bus, ts := newTestWeb(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.broadcastLoop(ctx)

	publish(bus, sampleState("fv1", 18.2))

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// First message is the snapshot of already-known state.
	var st events.VesselState
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if st.Vessel != "fv1" || *st.Temperature != 18.2 {
		t.Fatalf("snapshot = %+v", st)
	}

	publish(bus, sampleState("fv1", 18.4))
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if *st.Temperature != 18.4 {
		t.Errorf("broadcast temperature = %v, want 18.4", *st.Temperature)
	}
}

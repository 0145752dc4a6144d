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

package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFakeRecordsTransitions(t *testing.T) {
	ctx := context.Background()
	f := NewFake("heat")

	for _, on := range []bool{true, false, true} {
		if err := f.Set(ctx, on); err != nil {
			t.Fatal(err)
		}
	}
	if !f.On() {
		t.Error("expected final state on")
	}

	sets := f.Sets()
	if len(sets) != 3 {
		t.Fatalf("recorded %d sets, want 3", len(sets))
	}
	for i, want := range []bool{true, false, true} {
		if sets[i].On != want {
			t.Errorf("set %d = %v, want %v", i, sets[i].On, want)
		}
	}
}

func TestFakeFailCountRecovers(t *testing.T) {
	ctx := context.Background()
	f := NewFake("cool")
	f.FailCount = 2

	if err := f.Set(ctx, true); err == nil {
		t.Fatal("first set should fail")
	}
	if err := f.Set(ctx, true); err == nil {
		t.Fatal("second set should fail")
	}
	if err := f.Set(ctx, true); err != nil {
		t.Fatalf("third set should recover, got %v", err)
	}
	if !f.On() {
		t.Error("state should reflect the successful write only")
	}
}

func TestJournalPreservesCrossDeviceOrder(t *testing.T) {
	ctx := context.Background()
	j := &Journal{}
	heat := NewFake("heat")
	heat.Journal = j
	cool := NewFake("cool")
	cool.Journal = j

	_ = cool.Set(ctx, false)
	_ = heat.Set(ctx, true)

	entries := j.Entries()
	if len(entries) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(entries))
	}
	if entries[0].Device != "cool" || entries[0].On {
		t.Errorf("first entry = %+v, want cool off", entries[0])
	}
	if entries[1].Device != "heat" || !entries[1].On {
		t.Errorf("second entry = %+v, want heat on", entries[1])
	}
}

func TestPhidgetPostsDigitalOut(t *testing.T) {
	var got digitalOutRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := NewPhidget(PhidgetConfig{
		ServerURL: srv.URL,
		Name:      "fv1-heat",
		Channel:   2,
		HubPort:   1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Set(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if path != "/phidgets/digital_out" {
		t.Errorf("posted to %s, want /phidgets/digital_out", path)
	}
	if got.Name != "fv1-heat" || !got.TargetState || got.Channel != 2 || got.HubPort != 1 {
		t.Errorf("posted %+v", got)
	}
}

func TestPhidgetErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such channel", http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := NewPhidget(PhidgetConfig{ServerURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Set(context.Background(), true); err == nil {
		t.Error("expected error for non-200 response")
	}
}

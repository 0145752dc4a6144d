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

package readings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prairiedogbeer/fermenator/internal/units"
)

func TestFakeServesScriptInOrder(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	fake := NewFake()
	fake.AddTemperature("fv1",
		Reading{Value: 18.0, ObservedAt: t0},
		Reading{Value: 18.5, ObservedAt: t0.Add(time.Minute)},
	)

	for i, want := range []float64{18.0, 18.5} {
		r, err := fake.GetTemperature(ctx, "fv1")
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if r.Value != want {
			t.Errorf("read %d: got %v, want %v", i, r.Value, want)
		}
	}

	// Exhausted scripts repeat their last reading.
	r, err := fake.GetTemperature(ctx, "fv1")
	if err != nil {
		t.Fatalf("exhausted read: unexpected error: %v", err)
	}
	if r.Value != 18.5 {
		t.Errorf("exhausted read: got %v, want 18.5", r.Value)
	}
	if !r.ObservedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("exhausted read kept wrong timestamp: %v", r.ObservedAt)
	}
}

func TestFakeErrorInjectionIsOneShot(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("probe unplugged")

	fake := NewFake()
	fake.AddTemperature("fv1", Reading{Value: 20})
	fake.TemperatureErr = boom

	if _, err := fake.GetTemperature(ctx, "fv1"); !errors.Is(err, boom) {
		t.Fatalf("got %v, want injected error", err)
	}
	if _, err := fake.GetTemperature(ctx, "fv1"); err != nil {
		t.Fatalf("error should clear after one read, got %v", err)
	}
}

func TestFakeUnknownVessel(t *testing.T) {
	fake := NewFake()
	if _, err := fake.GetGravity(context.Background(), "fv9"); err == nil {
		t.Fatal("expected error for vessel with no script")
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr bool
	}{
		{"bare number", "17.25", 17.25, false},
		{"bare number padded", " 1.052\n", 1.052, false},
		{"json value", `{"value": 18.5}`, 18.5, false},
		{"json with timestamp", `{"value": 18.5, "timestamp": "2026-03-14T09:00:00Z"}`, 18.5, false},
		{"json missing value", `{"timestamp": "2026-03-14T09:00:00Z"}`, 0, true},
		{"junk", "not-a-reading", 0, true},
	}
	for _, tt := range tests {
		r, err := parsePayload([]byte(tt.payload))
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if r.Value != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, r.Value, tt.want)
		}
	}
}

func TestParsePayloadHonorsTimestamp(t *testing.T) {
	r, err := parsePayload([]byte(`{"value": 1.050, "timestamp": "2026-03-14T09:30:00Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if !r.ObservedAt.Equal(want) {
		t.Errorf("got observed_at %v, want %v", r.ObservedAt, want)
	}
}

func TestConvertedNormalizesUnits(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()
	fake.AddTemperature("fv1", Reading{Value: 68.0})
	fake.AddGravity("fv1", Reading{Value: 12.0})

	src := Converted{
		Source:          fake,
		TemperatureUnit: units.Fahrenheit,
		GravityUnit:     units.Plato,
	}

	temp, err := src.GetTemperature(ctx, "fv1")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(temp.Value-20.0) > 1e-9 {
		t.Errorf("68F: got %v C, want 20 C", temp.Value)
	}

	grav, err := src.GetGravity(ctx, "fv1")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(grav.Value-1.048) > 0.001 {
		t.Errorf("12P: got %v SG, want about 1.048", grav.Value)
	}
}

func TestModbusRequiresMappedRegisters(t *testing.T) {
	src := NewModbus(nil, map[string]VesselRegisters{
		"fv1": {Temperature: "fv1_temp"},
	})
	if _, err := src.GetGravity(context.Background(), "fv1"); err == nil {
		t.Error("expected error for vessel without a gravity register")
	}
	if _, err := src.GetTemperature(context.Background(), "fv2"); err == nil {
		t.Error("expected error for unmapped vessel")
	}
}

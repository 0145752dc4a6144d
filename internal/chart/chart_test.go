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

package chart

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/internal/storage"
)

type fakeHistory struct {
	rows map[string][]storage.ReadingRow
	err  error
}

func (f *fakeHistory) ReadingsBetween(ctx context.Context, vessel, kind string, from, to time.Time) ([]storage.ReadingRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[kind], nil
}

func history(kind string, start time.Time, values ...float64) []storage.ReadingRow {
	rows := make([]storage.ReadingRow, len(values))
	for i, v := range values {
		rows[i] = storage.ReadingRow{
			Vessel:     "fv1",
			Kind:       kind,
			Value:      v,
			ObservedAt: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return rows
}

func TestRenderProducesPNG(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := NewRenderer(&fakeHistory{rows: map[string][]storage.ReadingRow{
		readings.KindTemperature: history(readings.KindTemperature, start, 18.0, 18.2, 18.4, 18.3),
		readings.KindGravity:     history(readings.KindGravity, start, 1.050, 1.048, 1.046, 1.045),
	}}, Config{})

	var buf bytes.Buffer
	err := r.Render(context.Background(), "fv1", start, start.Add(time.Hour), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("no bytes rendered")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("output is not a PNG, starts with % x", buf.Bytes()[:4])
	}
}

func TestRenderTemperatureOnly(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := NewRenderer(&fakeHistory{rows: map[string][]storage.ReadingRow{
		readings.KindTemperature: history(readings.KindTemperature, start, 18.0, 18.5, 19.0),
	}}, Config{})

	var buf bytes.Buffer
	if err := r.Render(context.Background(), "fv1", start, start.Add(time.Hour), &buf); err != nil {
		t.Fatalf("Render without gravity: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderNeedsTwoPoints(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := NewRenderer(&fakeHistory{rows: map[string][]storage.ReadingRow{
		readings.KindTemperature: history(readings.KindTemperature, start, 18.0),
	}}, Config{})

	var buf bytes.Buffer
	err := r.Render(context.Background(), "fv1", start, start.Add(time.Hour), &buf)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("err = %v, want ErrNotEnoughData", err)
	}
}

func TestRenderPropagatesStoreError(t *testing.T) {
	r := NewRenderer(&fakeHistory{err: errors.New("connection refused")}, Config{})
	var buf bytes.Buffer
	err := r.Render(context.Background(), "fv1", time.Now().Add(-time.Hour), time.Now(), &buf)
	if err == nil {
		t.Fatal("expected store error")
	}
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := history(readings.KindTemperature, start,
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	out := downsample(rows, 4)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if out[0].Value != 0 || out[3].Value != 9 {
		t.Errorf("endpoints not kept: %v .. %v", out[0].Value, out[3].Value)
	}

	// Short series pass through untouched.
	if got := downsample(rows, 100); len(got) != len(rows) {
		t.Errorf("short series resampled to %d", len(got))
	}
}

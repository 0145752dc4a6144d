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

// Package chart renders a vessel's stored history as a PNG time
// series: temperature on the primary axis, gravity on the secondary
// when the vessel has a hydrometer.
package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/internal/storage"
)

// ErrNotEnoughData means the window held fewer than two temperature
// readings, which is not a line.
var ErrNotEnoughData = errors.New("not enough readings to chart")

type Config struct {
	Window time.Duration `mapstructure:"window"`
	Width  int           `mapstructure:"width"`
	Height int           `mapstructure:"height"`

	// MaxPoints caps the series length; longer windows are
	// downsampled evenly.
	MaxPoints int `mapstructure:"max_points"`
}

const (
	DefaultWindow    = 24 * time.Hour
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultMaxPoints = 720
)

func (c *Config) applyDefaults() {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.MaxPoints <= 0 {
		c.MaxPoints = DefaultMaxPoints
	}
}

// HistoryReader is the slice of the storage layer the renderer needs.
type HistoryReader interface {
	ReadingsBetween(ctx context.Context, vessel, kind string, from, to time.Time) ([]storage.ReadingRow, error)
}

type Renderer struct {
	store HistoryReader
	cfg   Config
}

func NewRenderer(store HistoryReader, cfg Config) *Renderer {
	cfg.applyDefaults()
	return &Renderer{store: store, cfg: cfg}
}

// Window returns the configured history span, for callers that need
// to derive the default chart range.
func (r *Renderer) Window() time.Duration {
	return r.cfg.Window
}

// Render writes a PNG for the vessel's readings in [from, to).
func (r *Renderer) Render(ctx context.Context, vessel string, from, to time.Time, w io.Writer) error {
	temps, err := r.store.ReadingsBetween(ctx, vessel, readings.KindTemperature, from, to)
	if err != nil {
		return fmt.Errorf("chart %s: %w", vessel, err)
	}
	if len(temps) < 2 {
		return fmt.Errorf("chart %s: %w", vessel, ErrNotEnoughData)
	}
	temps = downsample(temps, r.cfg.MaxPoints)

	gravities, err := r.store.ReadingsBetween(ctx, vessel, readings.KindGravity, from, to)
	if err != nil {
		return fmt.Errorf("chart %s: %w", vessel, err)
	}
	gravities = downsample(gravities, r.cfg.MaxPoints)

	tempX, tempY := split(temps)
	graph := gochart.Chart{
		Title:  vessel,
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name: "Temperature (C)",
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "temperature",
				XValues: tempX,
				YValues: tempY,
			},
		},
	}

	if len(gravities) >= 2 {
		gravX, gravY := split(gravities)
		graph.YAxisSecondary = gochart.YAxis{
			Name: "Specific gravity",
			ValueFormatter: func(v interface{}) string {
				return gochart.FloatValueFormatterWithFormat(v, "%.3f")
			},
		}
		graph.Series = append(graph.Series, gochart.TimeSeries{
			Name:    "gravity",
			XValues: gravX,
			YValues: gravY,
			YAxis:   gochart.YAxisSecondary,
		})
	}

	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart for %s: %w", vessel, err)
	}
	return nil
}

func split(rows []storage.ReadingRow) ([]time.Time, []float64) {
	x := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = row.ObservedAt
		y[i] = row.Value
	}
	return x, y
}

// downsample thins rows to at most max points, keeping the endpoints
// and even spacing in between.
func downsample(rows []storage.ReadingRow, max int) []storage.ReadingRow {
	if max <= 0 || len(rows) <= max {
		return rows
	}
	out := make([]storage.ReadingRow, 0, max)
	step := float64(len(rows)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		out = append(out, rows[idx])
	}
	return out
}

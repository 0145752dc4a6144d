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

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prairiedogbeer/fermenator/internal/chart"
)

// ChartOptions selects what to render and where to write it.
type ChartOptions struct {
	Vessel string
	Window time.Duration
	Out    string
}

// RenderChart writes one vessel's history chart as a PNG file.
func (a *App) RenderChart(ctx context.Context, opts ChartOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("database.dsn must be configured to render charts")
	}
	defer closeStore()

	renderer := chart.NewRenderer(store, a.Config.Chart)
	window := opts.Window
	if window <= 0 {
		window = renderer.Window()
	}
	to := time.Now()
	from := to.Add(-window)

	f, err := os.Create(opts.Out)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Out, err)
	}
	if err := renderer.Render(ctx, opts.Vessel, from, to, f); err != nil {
		f.Close()
		os.Remove(opts.Out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", opts.Out, err)
	}

	a.Logger.Info().
		Str("vessel", opts.Vessel).
		Str("path", opts.Out).
		Dur("window", window).
		Msg("chart written")
	return nil
}

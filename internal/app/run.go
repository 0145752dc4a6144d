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
	"fmt"

	"github.com/prairiedogbeer/fermenator/internal/chart"
	"github.com/prairiedogbeer/fermenator/internal/storage"
	"github.com/prairiedogbeer/fermenator/internal/version"
	"github.com/prairiedogbeer/fermenator/internal/web"
	"github.com/prairiedogbeer/fermenator/pkg/appctx"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
	"github.com/prairiedogbeer/fermenator/pkg/service"
)

// Run assembles everything and blocks until SIGINT or SIGTERM stops
// the services, or one of them panics.
func (a *App) Run() error {
	ctx, cancel := appctx.New(a.Logger)
	defer cancel()

	a.Logger.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Int("vessels", len(a.Config.Vessels)).
		Msg("starting fermenator")

	bus := eventbus.New()
	defer bus.Close()

	client, err := a.openModbus(ctx)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	zwave := a.openZWave()

	drivers, err := a.buildDrivers(client, zwave)
	if err != nil {
		return err
	}
	sources, err := a.buildSources(client, store)
	if err != nil {
		return err
	}
	sink, err := a.buildSink(bus)
	if err != nil {
		return err
	}
	defer sink.Close()

	var services []service.Runnable
	if zwave != nil {
		services = append(services, zwave)
	}
	for _, vc := range a.Config.Vessels {
		mgr, err := a.buildManager(vc, sources, drivers, sink)
		if err != nil {
			return err
		}
		services = append(services, mgr)
	}

	names := a.Config.VesselNames()
	if a.Config.Recorder.Enabled {
		services = append(services,
			storage.NewRecorder(store, bus, names, a.Config.Recorder, a.Logger))
	}
	if a.Config.Web.Enabled {
		var charts *chart.Renderer
		if store != nil {
			charts = chart.NewRenderer(store, a.Config.Chart)
		}
		services = append(services,
			web.NewService(a.Config.Web, bus, names, charts, a.Logger))
	}

	// blocks until every service has stopped
	code := <-service.Start(ctx, cancel, a.Logger, services)

	a.Logger.Info().Int("exit_code", code).Msg("fermenator stopped")
	if code != 0 {
		return fmt.Errorf("exited with code %d", code)
	}
	return nil
}

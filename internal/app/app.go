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

// Package app turns a validated configuration into running parts:
// drivers, reading sources, sinks and one manager per vessel. The CLI
// commands are thin wrappers over this package.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/beer"
	"github.com/prairiedogbeer/fermenator/internal/config"
	"github.com/prairiedogbeer/fermenator/internal/device"
	"github.com/prairiedogbeer/fermenator/internal/manager"
	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/internal/relay"
	"github.com/prairiedogbeer/fermenator/internal/statesink"
	"github.com/prairiedogbeer/fermenator/internal/storage"
	"github.com/prairiedogbeer/fermenator/internal/units"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
	"github.com/prairiedogbeer/fermenator/pkg/modbus"
	"github.com/prairiedogbeer/fermenator/pkg/zwavejsws"
)

// App aggregates configuration and shared dependencies for the CLI
// commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// New constructs a new application handle.
func New(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger}
}

// openModbus loads the register map and connects the shared client.
// Returns nil when no configured device or source speaks modbus.
func (a *App) openModbus(ctx context.Context) (*modbus.Client, error) {
	if !a.Config.NeedsModbus() {
		return nil, nil
	}
	mc, err := modbus.LoadRegisterMap(a.Config.Modbus.RegisterMap)
	if err != nil {
		return nil, fmt.Errorf("load register map: %w", err)
	}
	client, err := modbus.NewClient(ctx, mc, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect modbus: %w", err)
	}
	return client, nil
}

// openStore connects the Postgres pool and applies the schema.
// Returns nil when nothing in the config touches the database.
func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if !a.Config.NeedsDatabase() && a.Config.Database.DSN == "" {
		return nil, nil, nil
	}
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	store := storage.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// openZWave returns the shared zwave-js client, or nil when no
// device uses it. The session itself is managed by the client's Run.
func (a *App) openZWave() *zwavejsws.Client {
	if !a.Config.NeedsZWave() {
		return nil
	}
	return zwavejsws.NewClient(a.Config.ZWave.ServerURL, a.Logger)
}

// buildDrivers resolves every configured device to its relay driver.
func (a *App) buildDrivers(client *modbus.Client, zwave *zwavejsws.Client) (map[string]relay.Driver, error) {
	drivers := make(map[string]relay.Driver, len(a.Config.Devices))
	for name, dc := range a.Config.Devices {
		var (
			d   relay.Driver
			err error
		)
		switch dc.Kind {
		case config.DeviceGPIO:
			d, err = device.NewGPIO(dc.GPIO)
		case config.DeviceModbusCoil:
			d = device.NewCoil(client, dc.Coil)
		case config.DevicePhidget:
			d, err = device.NewPhidget(dc.Phidget)
		case config.DeviceZWave:
			d = device.NewZWave(zwave, dc.NodeID, a.Logger)
		default:
			err = fmt.Errorf("unknown kind %q", dc.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", name, err)
		}
		drivers[name] = d
	}
	return drivers, nil
}

// buildSources resolves every configured reading source, wrapping
// non-canonical units in a converter.
func (a *App) buildSources(client *modbus.Client, store *storage.Store) (map[string]readings.Source, error) {
	sources := make(map[string]readings.Source, len(a.Config.Sources))
	for name, sc := range a.Config.Sources {
		var src readings.Source
		switch sc.Kind {
		case config.SourceMQTT:
			m, err := readings.NewMQTT(sc.MQTT, a.Logger)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", name, err)
			}
			src = m
		case config.SourcePostgres:
			src = storage.NewSource(store)
		case config.SourceModbus:
			src = readings.NewModbus(client, sc.Registers)
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", name, sc.Kind)
		}

		tu, err := units.ParseTemperatureUnit(sc.TemperatureUnit)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		gu, err := units.ParseGravityUnit(sc.GravityUnit)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		if tu != units.Celsius || gu != units.SpecificGravity {
			src = readings.Converted{Source: src, TemperatureUnit: tu, GravityUnit: gu}
		}
		sources[name] = src
	}
	return sources, nil
}

// buildSink assembles the bus sink plus every configured destination
// behind one multi sink.
func (a *App) buildSink(bus *eventbus.Bus) (*statesink.Multi, error) {
	sinks := []statesink.Sink{statesink.NewBus(bus)}
	for i, sc := range a.Config.Sinks {
		var (
			s   statesink.Sink
			err error
		)
		switch sc.Kind {
		case config.SinkFile:
			s, err = statesink.NewFile(sc.File)
		case config.SinkGraphite:
			s, err = statesink.NewGraphite(sc.Graphite)
		case config.SinkMQTT:
			s, err = statesink.NewMQTT(sc.MQTT)
		case config.SinkKafka:
			s, err = statesink.NewKafka(sc.Kafka)
		default:
			err = fmt.Errorf("unknown kind %q", sc.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("sink %d: %w", i, err)
		}
		sinks = append(sinks, s)
	}
	return statesink.NewMulti(a.Logger, sinks...), nil
}

// buildManager assembles one vessel: engine, relays, manager.
func (a *App) buildManager(vc config.VesselConfig, sources map[string]readings.Source, drivers map[string]relay.Driver, sink statesink.Sink) (*manager.Manager, error) {
	engine, err := beer.New(vc.Name, sources[vc.Source], vc.Beer, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("vessel %s: %w", vc.Name, err)
	}

	var heat, cool *relay.Relay
	if vc.Heat != nil {
		heat = relay.New(vc.Name+"-heat", drivers[vc.Heat.Device], vc.Heat.Config, a.Logger)
	}
	if vc.Cool != nil {
		cool = relay.New(vc.Name+"-cool", drivers[vc.Cool.Device], vc.Cool.Config, a.Logger)
	}

	return manager.New(engine, heat, cool, sink, vc.Manager, a.Logger), nil
}

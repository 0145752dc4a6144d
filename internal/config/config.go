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

// Package config loads and validates the daemon configuration: one
// YAML file (with env overrides) declaring devices, reading sources,
// state sinks, storage and the vessels under management. Validation
// failures are fatal at startup; nothing downstream of a valid config
// may abort the process.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/prairiedogbeer/fermenator/internal/beer"
	"github.com/prairiedogbeer/fermenator/internal/chart"
	"github.com/prairiedogbeer/fermenator/internal/device"
	"github.com/prairiedogbeer/fermenator/internal/logging"
	"github.com/prairiedogbeer/fermenator/internal/manager"
	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/internal/relay"
	"github.com/prairiedogbeer/fermenator/internal/statesink"
	"github.com/prairiedogbeer/fermenator/internal/storage"
	"github.com/prairiedogbeer/fermenator/internal/units"
	"github.com/prairiedogbeer/fermenator/internal/web"
)

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Logging  logging.Config          `mapstructure:"logging"`
	Web      web.Config              `mapstructure:"web"`
	Database storage.Config          `mapstructure:"database"`
	Recorder storage.RecorderConfig  `mapstructure:"recorder"`
	Chart    chart.Config            `mapstructure:"chart"`
	Modbus   ModbusConfig            `mapstructure:"modbus"`
	ZWave    ZWaveConfig             `mapstructure:"zwave"`
	Devices  map[string]DeviceConfig `mapstructure:"devices"`
	Sources  map[string]SourceConfig `mapstructure:"sources"`
	Sinks    []SinkConfig            `mapstructure:"sinks"`
	Vessels  []VesselConfig          `mapstructure:"vessels"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

// ModbusConfig points at the register map file; the map file itself
// carries the endpoint address and register definitions.
type ModbusConfig struct {
	RegisterMap string `mapstructure:"register_map"`
}

// ZWaveConfig addresses the zwave-js server shared by all zwave
// devices.
type ZWaveConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// Device kinds.
const (
	DeviceGPIO       = "gpio"
	DeviceModbusCoil = "modbus_coil"
	DevicePhidget    = "phidget"
	DeviceZWave      = "zwave"
)

// DeviceConfig declares one named output a relay can drive.
type DeviceConfig struct {
	Kind    string               `mapstructure:"kind"`
	GPIO    device.GPIOConfig    `mapstructure:"gpio"`
	Coil    string               `mapstructure:"coil"`
	Phidget device.PhidgetConfig `mapstructure:"phidget"`
	NodeID  int                  `mapstructure:"node_id"`
}

// Source kinds.
const (
	SourceMQTT     = "mqtt"
	SourcePostgres = "postgres"
	SourceModbus   = "modbus"
)

// SourceConfig declares one named reading source. Units default to
// Celsius and specific gravity.
type SourceConfig struct {
	Kind            string                              `mapstructure:"kind"`
	MQTT            readings.MQTTConfig                 `mapstructure:"mqtt"`
	Registers       map[string]readings.VesselRegisters `mapstructure:"registers"`
	TemperatureUnit string                              `mapstructure:"temperature_unit"`
	GravityUnit     string                              `mapstructure:"gravity_unit"`
}

// Sink kinds. The in-process bus sink is always attached; it feeds
// the web layer.
const (
	SinkFile     = "file"
	SinkGraphite = "graphite"
	SinkMQTT     = "mqtt"
	SinkKafka    = "kafka"
)

type SinkConfig struct {
	Kind     string                   `mapstructure:"kind"`
	File     statesink.FileConfig     `mapstructure:"file"`
	Graphite statesink.GraphiteConfig `mapstructure:"graphite"`
	MQTT     statesink.MQTTConfig     `mapstructure:"mqtt"`
	Kafka    statesink.KafkaConfig    `mapstructure:"kafka"`
}

// RelayConfig binds a duty-cycled relay to a named device.
type RelayConfig struct {
	Device       string `mapstructure:"device"`
	relay.Config `mapstructure:",squash"`
}

// VesselConfig is everything one vessel needs: where readings come
// from, what the beer wants, and which outputs to drive. Heat and
// Cool are optional; a vessel may have only one side plumbed.
type VesselConfig struct {
	Name    string         `mapstructure:"name"`
	Source  string         `mapstructure:"source"`
	Beer    beer.Config    `mapstructure:"beer"`
	Heat    *RelayConfig   `mapstructure:"heat"`
	Cool    *RelayConfig   `mapstructure:"cool"`
	Manager manager.Config `mapstructure:"manager"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FERMENATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fermenator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fermenator")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fermenator")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("web.enabled", true)
	v.SetDefault("web.addr", web.DefaultAddr)

	v.SetDefault("recorder.enabled", false)
	v.SetDefault("recorder.interval", "1m")

	v.SetDefault("chart.window", "24h")

	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks everything that must hold before assembly starts.
func (c *Config) Validate() error {
	if len(c.Vessels) == 0 {
		return fmt.Errorf("at least one vessel must be configured")
	}

	for name, dev := range c.Devices {
		if err := dev.validate(c); err != nil {
			return fmt.Errorf("device %q: %w", name, err)
		}
	}
	for name, src := range c.Sources {
		if err := src.validate(c); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	for i, sink := range c.Sinks {
		if err := sink.validate(); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}

	seen := make(map[string]bool, len(c.Vessels))
	for _, vessel := range c.Vessels {
		if vessel.Name == "" {
			return fmt.Errorf("vessel name must not be empty")
		}
		if seen[vessel.Name] {
			return fmt.Errorf("duplicate vessel name %q", vessel.Name)
		}
		seen[vessel.Name] = true
		if err := vessel.validate(c); err != nil {
			return fmt.Errorf("vessel %q: %w", vessel.Name, err)
		}
	}

	if c.Recorder.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("recorder.enabled requires database.dsn")
	}
	return nil
}

func (d DeviceConfig) validate(c *Config) error {
	switch d.Kind {
	case DeviceGPIO:
		if d.GPIO.Line < 0 {
			return fmt.Errorf("gpio.line must not be negative")
		}
	case DeviceModbusCoil:
		if d.Coil == "" {
			return fmt.Errorf("coil name is required")
		}
		if c.Modbus.RegisterMap == "" {
			return fmt.Errorf("modbus.register_map is required for coil devices")
		}
	case DevicePhidget:
		if d.Phidget.ServerURL == "" {
			return fmt.Errorf("phidget.server_url is required")
		}
	case DeviceZWave:
		if d.NodeID <= 0 {
			return fmt.Errorf("node_id is required")
		}
		if c.ZWave.ServerURL == "" {
			return fmt.Errorf("zwave.server_url is required for zwave devices")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown device kind %q", d.Kind)
	}
	return nil
}

func (s SourceConfig) validate(c *Config) error {
	switch s.Kind {
	case SourceMQTT:
		if s.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required")
		}
	case SourcePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres sources")
		}
	case SourceModbus:
		if c.Modbus.RegisterMap == "" {
			return fmt.Errorf("modbus.register_map is required for modbus sources")
		}
		if len(s.Registers) == 0 {
			return fmt.Errorf("registers must map at least one vessel")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	if _, err := units.ParseTemperatureUnit(s.TemperatureUnit); err != nil {
		return err
	}
	if _, err := units.ParseGravityUnit(s.GravityUnit); err != nil {
		return err
	}
	return nil
}

func (s SinkConfig) validate() error {
	switch s.Kind {
	case SinkFile:
		if s.File.Dir == "" {
			return fmt.Errorf("file.dir is required")
		}
	case SinkGraphite:
		if s.Graphite.Host == "" {
			return fmt.Errorf("graphite.host is required")
		}
	case SinkMQTT:
		if s.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required")
		}
	case SinkKafka:
		if len(s.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown sink kind %q", s.Kind)
	}
	return nil
}

func (v VesselConfig) validate(c *Config) error {
	if v.Source == "" {
		return fmt.Errorf("source is required")
	}
	if _, ok := c.Sources[v.Source]; !ok {
		return fmt.Errorf("unknown source %q", v.Source)
	}
	if err := v.Beer.Target.Validate(); err != nil {
		return err
	}
	for side, rc := range map[string]*RelayConfig{"heat": v.Heat, "cool": v.Cool} {
		if rc == nil {
			continue
		}
		if rc.Device == "" {
			return fmt.Errorf("%s.device is required", side)
		}
		if _, ok := c.Devices[rc.Device]; !ok {
			return fmt.Errorf("%s references unknown device %q", side, rc.Device)
		}
	}
	return nil
}

// VesselNames lists configured vessels in declaration order.
func (c *Config) VesselNames() []string {
	names := make([]string, 0, len(c.Vessels))
	for _, v := range c.Vessels {
		names = append(names, v.Name)
	}
	return names
}

// NeedsModbus reports whether any device or source uses the shared
// modbus client.
func (c *Config) NeedsModbus() bool {
	for _, d := range c.Devices {
		if d.Kind == DeviceModbusCoil {
			return true
		}
	}
	for _, s := range c.Sources {
		if s.Kind == SourceModbus {
			return true
		}
	}
	return false
}

// NeedsZWave reports whether any device is driven through the
// zwave-js server.
func (c *Config) NeedsZWave() bool {
	for _, d := range c.Devices {
		if d.Kind == DeviceZWave {
			return true
		}
	}
	return false
}

// NeedsDatabase reports whether any configured component touches
// Postgres.
func (c *Config) NeedsDatabase() bool {
	if c.Recorder.Enabled {
		return true
	}
	for _, s := range c.Sources {
		if s.Kind == SourcePostgres {
			return true
		}
	}
	return false
}

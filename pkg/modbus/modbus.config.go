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

package modbus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the register map for one modbus device, loaded from its
// own yaml file so chamber wiring changes don't touch the main config.
type Config struct {
	Modbus    ModbusConfig           `yaml:"modbus"`
	Registers map[string]RegisterDef `yaml:"registers"`
}

type ModbusConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	SlaveID byte   `yaml:"slave_id"`
	Timeout int    `yaml:"timeout"` // seconds
}

type RegisterDef struct {
	Address     uint16  `yaml:"address"`
	Type        string  `yaml:"type"`      // "holding", "input", "coil"
	DataType    string  `yaml:"data_type"` // "uint16", "int16", "float32" (ignored for coils)
	Scale       float64 `yaml:"scale"`     // if set, raw value becomes raw*scale+offset
	Offset      float64 `yaml:"offset"`
	Description string  `yaml:"description"`
}

// LoadRegisterMap reads and validates a device register map.
func LoadRegisterMap(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read register map: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse register map %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("register map %s: %w", path, err)
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Modbus.Host == "" {
		return fmt.Errorf("modbus.host is required")
	}
	if c.Modbus.Port == 0 {
		c.Modbus.Port = 502
	}
	if c.Modbus.Timeout == 0 {
		c.Modbus.Timeout = 5
	}
	for name, def := range c.Registers {
		switch def.Type {
		case "holding", "input":
			switch def.DataType {
			case "uint16", "int16", "float32":
			default:
				return fmt.Errorf("register %q: unsupported data_type %q", name, def.DataType)
			}
		case "coil":
		default:
			return fmt.Errorf("register %q: unsupported type %q", name, def.Type)
		}
	}
	return nil
}

// Register looks up a register definition by name.
func (c *Config) Register(name string) (RegisterDef, bool) {
	def, ok := c.Registers[name]
	return def, ok
}

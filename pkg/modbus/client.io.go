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
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// ReadScaled reads a named register and returns its value with scale
// and offset applied. Cheap probe heads report scaled int16 (tenths of
// a degree); better ones report float32 directly.
func (c *Client) ReadScaled(ctx context.Context, name string) (float64, error) {
	def, ok := c.config.Registers[name]
	if !ok {
		return 0, fmt.Errorf("register %q not configured", name)
	}

	quantity := registerCount(def.DataType)
	var raw []byte
	var err error
	switch def.Type {
	case "input":
		raw, err = c.ReadInputRegisters(ctx, def.Address, quantity)
	case "holding":
		raw, err = c.ReadHoldingRegisters(ctx, def.Address, quantity)
	default:
		return 0, fmt.Errorf("register %q: type %q is not readable as a value", name, def.Type)
	}
	if err != nil {
		return 0, fmt.Errorf("read register %q: %w", name, err)
	}
	if len(raw) < int(quantity)*2 {
		return 0, fmt.Errorf("register %q returned insufficient data", name)
	}

	var value float64
	switch def.DataType {
	case "float32":
		value = float64(bytesToFloat32(raw))
	case "int16":
		value = float64(bytesToInt16(raw))
	case "uint16":
		value = float64(bytesToUint16(raw))
	default:
		return 0, fmt.Errorf("register %q: unsupported data_type %q", name, def.DataType)
	}

	if def.Scale != 0 {
		value = value*def.Scale + def.Offset
	}
	return value, nil
}

// WriteNamedCoil drives a coil-type register by name.
func (c *Client) WriteNamedCoil(ctx context.Context, name string, on bool) error {
	def, ok := c.config.Registers[name]
	if !ok {
		return fmt.Errorf("register %q not configured", name)
	}
	if def.Type != "coil" {
		return fmt.Errorf("register %q is %s, not a coil", name, def.Type)
	}
	c.log.Debug().Str("register", name).Bool("on", on).Msg("write coil")
	return c.WriteCoil(ctx, def.Address, on)
}

func registerCount(dataType string) uint16 {
	if dataType == "float32" {
		return 2
	}
	return 1
}

func bytesToUint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func bytesToInt16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}

func bytesToFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

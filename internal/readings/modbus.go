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
	"fmt"
	"time"

	"github.com/prairiedogbeer/fermenator/pkg/modbus"
)

// VesselRegisters names the registers in the client's register map
// that carry a vessel's sensor values. Gravity is optional since most
// PLC rigs only expose a thermowell probe.
type VesselRegisters struct {
	Temperature string `mapstructure:"temperature"`
	Gravity     string `mapstructure:"gravity"`
}

// Modbus reads live values from a PLC. A read is observed at the
// moment it returns, so staleness only arises when the poll fails.
type Modbus struct {
	client  *modbus.Client
	vessels map[string]VesselRegisters
}

func NewModbus(client *modbus.Client, vessels map[string]VesselRegisters) *Modbus {
	return &Modbus{client: client, vessels: vessels}
}

func (m *Modbus) GetTemperature(ctx context.Context, vessel string) (Reading, error) {
	regs, ok := m.vessels[vessel]
	if !ok || regs.Temperature == "" {
		return Reading{}, fmt.Errorf("no temperature register mapped for vessel %q", vessel)
	}
	v, err := m.client.ReadScaled(ctx, regs.Temperature)
	if err != nil {
		return Reading{}, fmt.Errorf("read %s: %w", regs.Temperature, err)
	}
	return Reading{Value: v, ObservedAt: time.Now()}, nil
}

func (m *Modbus) GetGravity(ctx context.Context, vessel string) (Reading, error) {
	regs, ok := m.vessels[vessel]
	if !ok || regs.Gravity == "" {
		return Reading{}, fmt.Errorf("no gravity register mapped for vessel %q", vessel)
	}
	v, err := m.client.ReadScaled(ctx, regs.Gravity)
	if err != nil {
		return Reading{}, fmt.Errorf("read %s: %w", regs.Gravity, err)
	}
	return Reading{Value: v, ObservedAt: time.Now()}, nil
}

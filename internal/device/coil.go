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

package device

import (
	"context"

	"github.com/prairiedogbeer/fermenator/pkg/modbus"
)

// Coil switches a named coil in the Modbus client's register map,
// typically a glycol solenoid wired through the glycol plant's PLC.
type Coil struct {
	client *modbus.Client
	coil   string
}

func NewCoil(client *modbus.Client, coil string) *Coil {
	return &Coil{client: client, coil: coil}
}

func (c *Coil) Set(ctx context.Context, on bool) error {
	return c.client.WriteNamedCoil(ctx, c.coil, on)
}

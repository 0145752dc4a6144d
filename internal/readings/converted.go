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

	"github.com/prairiedogbeer/fermenator/internal/units"
)

// Converted normalizes a source that reports in other units. The rest
// of the system always works in Celsius and specific gravity.
type Converted struct {
	Source          Source
	TemperatureUnit units.TemperatureUnit
	GravityUnit     units.GravityUnit
}

func (c Converted) GetTemperature(ctx context.Context, vessel string) (Reading, error) {
	r, err := c.Source.GetTemperature(ctx, vessel)
	if err != nil {
		return Reading{}, err
	}
	r.Value = units.ToCelsius(r.Value, c.TemperatureUnit)
	return r, nil
}

func (c Converted) GetGravity(ctx context.Context, vessel string) (Reading, error) {
	r, err := c.Source.GetGravity(ctx, vessel)
	if err != nil {
		return Reading{}, err
	}
	r.Value = units.ToSG(r.Value, c.GravityUnit)
	return r, nil
}

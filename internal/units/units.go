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

// Package units converts between the temperature and gravity scales
// found in the wild. Internally everything runs on celsius and
// specific gravity; sources configured in other units convert on the
// way in.
package units

import (
	"fmt"
	"strings"
)

// TemperatureUnit identifies a temperature scale.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
	Kelvin     TemperatureUnit = "kelvin"
)

// GravityUnit identifies a fermentable-density scale.
type GravityUnit string

const (
	SpecificGravity GravityUnit = "sg"
	Plato           GravityUnit = "plato"
)

func CToF(c float64) float64 { return c*9.0/5.0 + 32.0 }
func FToC(f float64) float64 { return (f - 32.0) * 5.0 / 9.0 }
func CToK(c float64) float64 { return c + 273.15 }
func KToC(k float64) float64 { return k - 273.15 }

// SGToPlato converts specific gravity to degrees Plato using the
// standard cubic approximation.
func SGToPlato(sg float64) float64 {
	return 135.997*sg*sg*sg - 630.272*sg*sg + 1111.14*sg - 616.868
}

// PlatoToSG converts degrees Plato to specific gravity.
func PlatoToSG(p float64) float64 {
	return 1.0 + p/(258.6-(p/258.2)*227.1)
}

// ParseTemperatureUnit accepts common spellings ("c", "celsius", "f", ...).
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "celsius", "centigrade":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	case "k", "kelvin":
		return Kelvin, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}

// ParseGravityUnit accepts common spellings ("sg", "p", "plato").
func ParseGravityUnit(s string) (GravityUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sg", "gravity", "specific_gravity":
		return SpecificGravity, nil
	case "p", "plato":
		return Plato, nil
	}
	return "", fmt.Errorf("unknown gravity unit %q", s)
}

// ToCelsius converts value from unit to celsius.
func ToCelsius(value float64, unit TemperatureUnit) float64 {
	switch unit {
	case Fahrenheit:
		return FToC(value)
	case Kelvin:
		return KToC(value)
	}
	return value
}

// ToSG converts value from unit to specific gravity.
func ToSG(value float64, unit GravityUnit) float64 {
	if unit == Plato {
		return PlatoToSG(value)
	}
	return value
}

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
	"io"
)

// Check prints a summary of the loaded configuration. Load already
// validated it; reaching this point means the file is usable.
func (a *App) Check(w io.Writer) {
	c := a.Config

	fmt.Fprintf(w, "configuration ok: %d vessels, %d devices, %d sources, %d sinks\n",
		len(c.Vessels), len(c.Devices), len(c.Sources), len(c.Sinks))

	for _, vc := range c.Vessels {
		heat, cool := "none", "none"
		if vc.Heat != nil {
			heat = vc.Heat.Device
		}
		if vc.Cool != nil {
			cool = vc.Cool.Device
		}
		fmt.Fprintf(w, "  vessel %s: source=%s target=%s heat=%s cool=%s\n",
			vc.Name, vc.Source, vc.Beer.Target.Kind, heat, cool)
	}

	if c.Web.Enabled {
		fmt.Fprintf(w, "  web: %s\n", c.Web.Addr)
	}
	if c.Recorder.Enabled {
		fmt.Fprintf(w, "  recorder: every %s\n", c.Recorder.Interval)
	}
	if c.NeedsModbus() {
		fmt.Fprintf(w, "  modbus: register map %s\n", c.Modbus.RegisterMap)
	}
}

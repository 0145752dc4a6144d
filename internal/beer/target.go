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

package beer

import "fmt"

type TargetKind string

const (
	// FixedSetPoint holds one temperature for the whole fermentation.
	FixedSetPoint TargetKind = "set_point"

	// LinearRamp moves the target from StartTemp to EndTemp in
	// proportion to attenuation progress.
	LinearRamp TargetKind = "linear_ramp"

	// DampenedRamp is LinearRamp with progress bent toward the tail:
	// the schedule lingers near StartTemp early and catches up as the
	// beer attenuates, which suits strains that throw off-flavours
	// when warmed too soon.
	DampenedRamp TargetKind = "dampened_ramp"
)

// TargetModel describes how a vessel's target temperature evolves.
// Exactly the fields for the configured Kind are consulted.
type TargetModel struct {
	Kind TargetKind `mapstructure:"kind"`

	// FixedSetPoint.
	SetPoint float64 `mapstructure:"set_point"`

	// LinearRamp and DampenedRamp.
	OriginalGravity float64 `mapstructure:"original_gravity"`
	FinalGravity    float64 `mapstructure:"final_gravity"`
	StartTemp       float64 `mapstructure:"start_temp"`
	EndTemp         float64 `mapstructure:"end_temp"`

	// DampenedRamp only. 1.0 behaves exactly like LinearRamp,
	// 0.0 follows the square of progress.
	DampingFactor float64 `mapstructure:"damping_factor"`
}

func (m TargetModel) Validate() error {
	switch m.Kind {
	case FixedSetPoint:
		return nil
	case LinearRamp, DampenedRamp:
		if m.OriginalGravity <= m.FinalGravity {
			return fmt.Errorf("target model %s: original_gravity (%v) must exceed final_gravity (%v)",
				m.Kind, m.OriginalGravity, m.FinalGravity)
		}
		if m.Kind == DampenedRamp && (m.DampingFactor < 0 || m.DampingFactor > 1) {
			return fmt.Errorf("target model %s: damping_factor %v out of range [0, 1]",
				m.Kind, m.DampingFactor)
		}
		return nil
	default:
		return fmt.Errorf("unknown target model kind %q", m.Kind)
	}
}

// NeedsGravity reports whether evaluating the model requires a
// gravity reading.
func (m TargetModel) NeedsGravity() bool {
	return m.Kind != FixedSetPoint
}

// Progress maps the current gravity onto [0, 1]. Readings outside the
// original/final gravity span clamp to the corresponding endpoint, so
// an over-vigorous krausen reading cannot push the schedule backward.
func (m TargetModel) Progress(gravity float64) float64 {
	if gravity > m.OriginalGravity {
		gravity = m.OriginalGravity
	} else if gravity < m.FinalGravity {
		gravity = m.FinalGravity
	}
	return (m.OriginalGravity - gravity) / (m.OriginalGravity - m.FinalGravity)
}

// TargetTemperature evaluates the model at the given gravity. The
// gravity argument is ignored for FixedSetPoint.
func (m TargetModel) TargetTemperature(gravity float64) float64 {
	switch m.Kind {
	case LinearRamp:
		p := m.Progress(gravity)
		return m.StartTemp + p*(m.EndTemp-m.StartTemp)
	case DampenedRamp:
		p := m.Progress(gravity)
		p = m.DampingFactor*p + (1-m.DampingFactor)*p*p
		return m.StartTemp + p*(m.EndTemp-m.StartTemp)
	default:
		return m.SetPoint
	}
}

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

// Package readings provides the sensor-data sources the decision
// engine polls. A source only hands back the most recent value and
// when it was observed; plausibility and staleness checks belong to
// the decision engine.
package readings

import (
	"context"
	"time"
)

// Reading is one observed value for a vessel quantity.
type Reading struct {
	Value      float64
	ObservedAt time.Time
}

// Source serves the latest temperature and gravity readings for a
// vessel. Implementations return plain errors on fetch failure.
type Source interface {
	GetTemperature(ctx context.Context, vessel string) (Reading, error)
	GetGravity(ctx context.Context, vessel string) (Reading, error)
}

// Kinds of tracked quantities, shared with storage and sinks.
const (
	KindTemperature = "temperature"
	KindGravity     = "gravity"
)

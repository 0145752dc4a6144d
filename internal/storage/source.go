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

package storage

import (
	"context"

	"github.com/prairiedogbeer/fermenator/internal/readings"
)

// LatestReader is the slice of Store the source needs.
type LatestReader interface {
	LatestReading(ctx context.Context, vessel, kind string) (ReadingRow, error)
}

// Source serves the newest stored reading per vessel and quantity,
// for vessels whose telemetry lands in Postgres before it reaches us
// (a Tilt logger shipping rows from another host, for instance). The
// decision engine still judges staleness from observed_at.
type Source struct {
	store LatestReader
}

func NewSource(store LatestReader) *Source {
	return &Source{store: store}
}

func (s *Source) GetTemperature(ctx context.Context, vessel string) (readings.Reading, error) {
	return s.latest(ctx, vessel, readings.KindTemperature)
}

func (s *Source) GetGravity(ctx context.Context, vessel string) (readings.Reading, error) {
	return s.latest(ctx, vessel, readings.KindGravity)
}

func (s *Source) latest(ctx context.Context, vessel, kind string) (readings.Reading, error) {
	row, err := s.store.LatestReading(ctx, vessel, kind)
	if err != nil {
		return readings.Reading{}, err
	}
	return readings.Reading{Value: row.Value, ObservedAt: row.ObservedAt}, nil
}

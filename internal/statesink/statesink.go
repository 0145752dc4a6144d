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

// Package statesink fans each vessel's per-poll state report out to
// places people actually watch: MQTT dashboards, carbon, Kafka, the
// in-process event bus, or a flat file. Sinks are observers only; a
// sink failure is logged and never feeds back into control.
package statesink

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

type Sink interface {
	Name() string
	Record(ctx context.Context, state events.VesselState) error
	Close() error
}

// Multi forwards to every child sink. Failures are logged per sink
// and swallowed so one flaky destination cannot mute the rest.
type Multi struct {
	sinks []Sink
	log   zerolog.Logger
}

func NewMulti(log zerolog.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, log: log}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Record(ctx context.Context, state events.VesselState) error {
	for _, s := range m.sinks {
		if err := s.Record(ctx, state); err != nil {
			m.log.Error().
				Err(err).
				Str("sink", s.Name()).
				Str("vessel", state.Vessel).
				Msg("failed to record vessel state")
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

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

package statesink

import (
	"context"

	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
)

// Bus publishes state onto the in-process event bus, once on the
// firehose topic and once on the vessel's own topic. The per-vessel
// topic keeps the last event, which is what the web layer serves.
type Bus struct {
	bus *eventbus.Bus
}

func NewBus(bus *eventbus.Bus) *Bus {
	return &Bus{bus: bus}
}

func (b *Bus) Name() string { return "bus" }

func (b *Bus) Record(ctx context.Context, state events.VesselState) error {
	b.bus.Publish(events.TopicVesselState, state)
	b.bus.Publish(events.VesselTopic(state.Vessel), state)
	return nil
}

func (b *Bus) Close() error { return nil }

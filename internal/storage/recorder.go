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
	"time"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/internal/readings"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
)

type RecorderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

const DefaultRecorderInterval = time.Minute

// Inserter is the slice of Store the recorder needs.
type Inserter interface {
	InsertReading(ctx context.Context, row ReadingRow) error
}

// Recorder periodically samples each vessel's last published state
// into the readings table. It reads the bus rather than the engines
// directly, so it sees exactly what the sinks saw.
type Recorder struct {
	store    Inserter
	bus      *eventbus.Bus
	vessels  []string
	interval time.Duration
	log      zerolog.Logger

	// lastSeen holds the heartbeat of the last recorded state per
	// vessel, so an idle control loop is not re-sampled.
	lastSeen map[string]time.Time
}

func NewRecorder(store Inserter, bus *eventbus.Bus, vessels []string, cfg RecorderConfig, log zerolog.Logger) *Recorder {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRecorderInterval
	}
	return &Recorder{
		store:    store,
		bus:      bus,
		vessels:  vessels,
		interval: cfg.Interval,
		log:      log.With().Str("service", "recorder").Logger(),
		lastSeen: make(map[string]time.Time),
	}
}

// Run samples on a fixed interval until the context is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	r.log.Info().
		Dur("interval", r.interval).
		Int("vessels", len(r.vessels)).
		Msg("recorder started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("recorder stopped")
			return
		case <-ticker.C:
			r.sample(ctx)
		}
	}
}

func (r *Recorder) sample(ctx context.Context) {
	for _, vessel := range r.vessels {
		ev, ok := r.bus.GetLast(events.VesselTopic(vessel))
		if !ok {
			continue
		}
		st, ok := ev.(events.VesselState)
		if !ok {
			continue
		}
		if !st.Heartbeat.After(r.lastSeen[vessel]) {
			continue
		}
		r.lastSeen[vessel] = st.Heartbeat

		if st.Temperature != nil {
			r.insert(ctx, ReadingRow{
				Vessel:     vessel,
				Kind:       readings.KindTemperature,
				Value:      *st.Temperature,
				ObservedAt: st.Heartbeat,
			})
		}
		if st.Gravity != nil {
			r.insert(ctx, ReadingRow{
				Vessel:     vessel,
				Kind:       readings.KindGravity,
				Value:      *st.Gravity,
				ObservedAt: st.Heartbeat,
			})
		}
	}
}

func (r *Recorder) insert(ctx context.Context, row ReadingRow) {
	if err := r.store.InsertReading(ctx, row); err != nil {
		r.log.Warn().
			Err(err).
			Str("vessel", row.Vessel).
			Str("kind", row.Kind).
			Msg("failed to record reading history")
	}
}

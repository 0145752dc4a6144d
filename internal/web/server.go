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

// Package web is the read-only status surface: JSON snapshots, a
// live websocket feed, history charts and debug pages. It never
// mutates control state.
package web

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/chart"
	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
	"github.com/prairiedogbeer/fermenator/pkg/sysmon"
)

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

const DefaultAddr = ":8080"

// Service serves vessel status over HTTP. The chart renderer is nil
// when no history storage is configured.
type Service struct {
	addr    string
	bus     *eventbus.Bus
	charts  *chart.Renderer
	vessels []string
	log     zerolog.Logger
	clients *clientSync
}

func NewService(cfg Config, bus *eventbus.Bus, vessels []string, charts *chart.Renderer, log zerolog.Logger) *Service {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Service{
		addr:    addr,
		bus:     bus,
		charts:  charts,
		vessels: vessels,
		log:     log.With().Str("service", "web").Logger(),
		clients: newClientSync(),
	}
}

func (s *Service) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	r.HandleFunc("/vessels", s.handleVessels).Methods("GET")
	r.HandleFunc("/vessels/{name}", s.handleVessel).Methods("GET")
	r.HandleFunc("/chart/{name}.png", s.handleChart).Methods("GET")
	r.HandleFunc("/ws", s.handleWS)
	r.Handle("/debug/status", sysmon.Handler{}).Methods("GET")
	r.HandleFunc("/debug/logs", s.handleLogs).Methods("GET")
	return r
}

// Run serves until the context is cancelled, then shuts down with a
// bounded grace period and drops any websocket clients.
func (s *Service) Run(ctx context.Context) {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: handlers.LoggingHandler(os.Stdout, s.router()),
	}

	go s.broadcastLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info().Str("addr", s.addr).Msg("web server started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("web server shutdown")
		}
		s.clients.closeAll()
		s.log.Info().Msg("web server stopped")
	case err := <-errCh:
		s.log.Error().Err(err).Msg("web server stopped")
	}
}

// broadcastLoop forwards every published vessel state to the
// websocket clients.
func (s *Service) broadcastLoop(ctx context.Context) {
	ch, unsub := s.bus.Subscribe(ctx, events.TopicVesselState, false)
	defer unsub()
	for ev := range ch {
		if st, ok := ev.(events.VesselState); ok {
			s.broadcastState(st)
		}
	}
}

// snapshot collects the last known state of each configured vessel,
// skipping vessels that have not reported yet.
func (s *Service) snapshot() []events.VesselState {
	out := make([]events.VesselState, 0, len(s.vessels))
	for _, name := range s.vessels {
		ev, ok := s.bus.GetLast(events.VesselTopic(name))
		if !ok {
			continue
		}
		if st, ok := ev.(events.VesselState); ok {
			out = append(out, st)
		}
	}
	return out
}

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

package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

// clientSync tracks connected websocket clients. One prepared
// message is fanned out to all of them; a failed write evicts the
// client.
type clientSync struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newClientSync() *clientSync {
	return &clientSync{clients: make(map[*websocket.Conn]bool)}
}

func (c *clientSync) add(ws *websocket.Conn) {
	c.mu.Lock()
	c.clients[ws] = true
	c.mu.Unlock()
}

func (c *clientSync) remove(ws *websocket.Conn) {
	c.mu.Lock()
	delete(c.clients, ws)
	c.mu.Unlock()
}

func (c *clientSync) broadcast(pm *websocket.PreparedMessage, log zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ws := range c.clients {
		if err := ws.WritePreparedMessage(pm); err != nil {
			log.Error().Err(err).Msg("failed to write websocket message")
			ws.Close()
			delete(c.clients, ws)
		}
	}
}

func (c *clientSync) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ws := range c.clients {
		ws.Close()
		delete(c.clients, ws)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// No Origin means a non-browser client.
			return true
		}
		if strings.Contains(origin, "localhost") {
			return true
		}
		return strings.Contains(origin, r.Host)
	},
}

func (s *Service) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to upgrade websocket")
		return
	}
	s.clients.add(ws)
	defer func() {
		s.clients.remove(ws)
		ws.Close()
	}()

	// Current snapshot first, so the page renders without waiting
	// for the next poll.
	for _, st := range s.snapshot() {
		if err := ws.WriteJSON(st); err != nil {
			return
		}
	}

	// The surface is read-only; inbound payloads are drained and
	// dropped until the peer goes away.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
	}
}

func (s *Service) broadcastState(st events.VesselState) {
	data, err := json.Marshal(st)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal vessel state")
		return
	}
	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to prepare websocket message")
		return
	}
	s.clients.broadcast(pm, s.log)
}

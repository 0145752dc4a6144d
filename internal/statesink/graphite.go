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
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

type GraphiteConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Graphite speaks the carbon plaintext protocol: one
// "path value timestamp" line per metric over a long-lived TCP
// connection. The connection is dialed lazily and redialed once per
// record when a write fails.
type Graphite struct {
	addr    string
	prefix  string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func NewGraphite(cfg GraphiteConfig) (*Graphite, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("graphite sink: host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 2003
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "fermenator.state"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Graphite{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		prefix:  prefix,
		timeout: timeout,
	}, nil
}

func (g *Graphite) Name() string { return "graphite" }

func (g *Graphite) Record(ctx context.Context, state events.VesselState) error {
	ts := state.Heartbeat.Unix()
	vessel := strings.NewReplacer(" ", "_", ".", "_").Replace(state.Vessel)

	var b strings.Builder
	metric := func(field string, v float64) {
		fmt.Fprintf(&b, "%s.%s.%s %s %d\n",
			g.prefix, vessel, field, strconv.FormatFloat(v, 'f', -1, 64), ts)
	}
	metric("heartbeat", float64(ts))
	metric("heating", boolMetric(state.Heating))
	metric("cooling", boolMetric(state.Cooling))
	if state.Temperature != nil {
		metric("temperature", *state.Temperature)
	}
	if state.Target != nil {
		metric("target", *state.Target)
	}
	if state.Gravity != nil {
		metric("gravity", *state.Gravity)
	}
	if state.Progress != nil {
		metric("progress", *state.Progress)
	}
	if state.HeatDuty != nil {
		metric("heat_duty", *state.HeatDuty)
	}
	if state.CoolDuty != nil {
		metric("cool_duty", *state.CoolDuty)
	}

	payload := []byte(b.String())
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.send(payload); err != nil {
		g.reset()
		if err = g.send(payload); err != nil {
			return fmt.Errorf("write to carbon: %w", err)
		}
	}
	return nil
}

func (g *Graphite) send(payload []byte) error {
	if g.conn == nil {
		conn, err := net.DialTimeout("tcp", g.addr, g.timeout)
		if err != nil {
			return err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetKeepAlive(true)
			tcp.SetKeepAlivePeriod(15 * time.Second)
		}
		g.conn = conn
	}
	g.conn.SetWriteDeadline(time.Now().Add(g.timeout))
	_, err := g.conn.Write(payload)
	return err
}

func (g *Graphite) reset() {
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

func (g *Graphite) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
	return nil
}

func boolMetric(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

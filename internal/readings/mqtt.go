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

package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MQTT caches the most recent reading published per vessel and kind.
// Hydrometers and thermowell probes publish to
// <prefix>/<vessel>/temperature and <prefix>/<vessel>/gravity, either
// a bare number or a JSON object {"value": 17.25, "timestamp": ...}.
type MQTT struct {
	client mqtt.Client
	prefix string
	log    zerolog.Logger

	mu     sync.RWMutex
	latest map[string]Reading
}

func NewMQTT(cfg MQTTConfig, log zerolog.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt source: broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "fermenator"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	m := &MQTT{
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		log:    log,
		latest: make(map[string]Reading),
	}
	if m.prefix == "" {
		m.prefix = "fermenator/readings"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	// Subscribe on every (re)connect so a broker restart does not
	// leave us silently deaf.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		filter := m.prefix + "/#"
		if token := c.Subscribe(filter, 1, m.onMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("filter", filter).Msg("mqtt subscribe failed")
			return
		}
		log.Info().Str("filter", filter).Msg("subscribed to readings topic")
	})

	m.client = mqtt.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt source: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt source: connect to %s: %w", cfg.Broker, err)
	}
	return m, nil
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	rest := strings.TrimPrefix(msg.Topic(), m.prefix+"/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return
	}
	vessel, kind := parts[0], parts[1]
	if kind != KindTemperature && kind != KindGravity {
		return
	}

	reading, err := parsePayload(msg.Payload())
	if err != nil {
		m.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("discarding unparseable reading")
		return
	}

	m.mu.Lock()
	m.latest[vessel+"/"+kind] = reading
	m.mu.Unlock()

	m.log.Debug().
		Str("vessel", vessel).
		Str("kind", kind).
		Float64("value", reading.Value).
		Time("observed_at", reading.ObservedAt).
		Msg("reading received")
}

func parsePayload(payload []byte) (Reading, error) {
	var wire struct {
		Value     *float64 `json:"value"`
		Timestamp string   `json:"timestamp"`
	}
	if err := json.Unmarshal(payload, &wire); err == nil && wire.Value != nil {
		r := Reading{Value: *wire.Value, ObservedAt: time.Now()}
		if wire.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, wire.Timestamp); err == nil {
				r.ObservedAt = ts
			}
		}
		return r, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("payload %q is neither JSON nor a number", payload)
	}
	return Reading{Value: v, ObservedAt: time.Now()}, nil
}

func (m *MQTT) get(vessel, kind string) (Reading, error) {
	m.mu.RLock()
	r, ok := m.latest[vessel+"/"+kind]
	m.mu.RUnlock()
	if !ok {
		return Reading{}, fmt.Errorf("no %s reading seen yet for vessel %q", kind, vessel)
	}
	return r, nil
}

func (m *MQTT) GetTemperature(ctx context.Context, vessel string) (Reading, error) {
	return m.get(vessel, KindTemperature)
}

func (m *MQTT) GetGravity(ctx context.Context, vessel string) (Reading, error) {
	return m.get(vessel, KindGravity)
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MQTT publishes a full JSON snapshot to <prefix>/<vessel>/state and
// bare values to .../heartbeat, .../heating and .../cooling for
// dashboards that want a single number per widget. Everything is
// QoS 1 and retained so a reconnecting panel sees the last state
// immediately.
type MQTT struct {
	client mqtt.Client
	prefix string
}

func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt sink: broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "fermenator-sink"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = "fermenator/state"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt sink: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt sink: connect to %s: %w", cfg.Broker, err)
	}
	return &MQTT{client: client, prefix: prefix}, nil
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Record(ctx context.Context, state events.VesselState) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	base := m.prefix + "/" + state.Vessel
	if err := m.publish(base+"/state", snapshot); err != nil {
		return err
	}
	if err := m.publish(base+"/heartbeat", []byte(strconv.FormatInt(state.Heartbeat.Unix(), 10))); err != nil {
		return err
	}
	if err := m.publish(base+"/heating", boolPayload(state.Heating)); err != nil {
		return err
	}
	return m.publish(base+"/cooling", boolPayload(state.Cooling))
}

func (m *MQTT) publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(1000)
	return nil
}

func boolPayload(v bool) []byte {
	if v {
		return []byte("1")
	}
	return []byte("0")
}

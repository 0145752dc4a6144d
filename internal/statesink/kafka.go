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
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Kafka publishes state events keyed by vessel, so a partition holds
// one vessel's timeline in order. Each event carries a fresh id for
// downstream dedup.
type Kafka struct {
	writer *kafka.Writer
}

type kafkaEnvelope struct {
	ID string `json:"id"`
	events.VesselState
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: at least one broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "fermenator.vessel-state"
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}, nil
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Record(ctx context.Context, state events.VesselState) error {
	b, err := json.Marshal(kafkaEnvelope{ID: uuid.NewString(), VesselState: state})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	msg := kafka.Message{Key: []byte(state.Vessel), Value: b, Time: time.Now()}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("state write: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

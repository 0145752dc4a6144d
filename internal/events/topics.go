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

package events

import (
	"time"

	"github.com/prairiedogbeer/fermenator/pkg/eventbus"
)

// TopicVesselState carries every vessel's updates; the websocket
// feed subscribes here.
var TopicVesselState eventbus.Topic = "vessel.state"

// VesselTopic is the per-vessel topic; its last event is the snapshot
// the web handlers serve.
func VesselTopic(name string) eventbus.Topic {
	return eventbus.Topic("vessel.state." + name)
}

// Vessel management states.
const (
	StateIdle    = "idle"
	StateHeating = "heating"
	StateCooling = "cooling"
)

// VesselState is the control loop's per-poll report. Optional fields
// are nil until the underlying data exists (no gravity source, no
// reading yet, relay without duty cycling).
type VesselState struct {
	Vessel    string    `json:"vessel"`
	State     string    `json:"state"` // idle | heating | cooling
	Heating   bool      `json:"heating"`
	Cooling   bool      `json:"cooling"`
	Heartbeat time.Time `json:"heartbeat"`

	Temperature *float64 `json:"temperature,omitempty"`
	Target      *float64 `json:"target,omitempty"`
	Gravity     *float64 `json:"gravity,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	HeatDuty    *float64 `json:"heat_duty,omitempty"`
	CoolDuty    *float64 `json:"cool_duty,omitempty"`
}

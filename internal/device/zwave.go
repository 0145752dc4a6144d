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

package device

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/pkg/zwavejsws"
)

// binarySwitchCC is the Z-Wave Binary Switch command class.
const binarySwitchCC = 0x25

// ZWave drives a binary switch node through a zwave-js server,
// typically a smart plug powering a heat belt or pad. The session is
// owned by the shared client; a write while the session is down
// returns an error and the relay retries on its next cycle.
type ZWave struct {
	client *zwavejsws.Client
	nodeID int
	log    zerolog.Logger
}

// NewZWave returns the driver and registers callbacks that verify
// the node on connect and log switch confirmations.
func NewZWave(client *zwavejsws.Client, nodeID int, log zerolog.Logger) *ZWave {
	z := &ZWave{
		client: client,
		nodeID: nodeID,
		log:    log.With().Str("device", "zwave").Int("node_id", nodeID).Logger(),
	}
	client.OnState(z.checkNode)
	client.OnEvent(z.logSwitchUpdate)
	return z
}

func (z *ZWave) Set(ctx context.Context, on bool) error {
	return z.client.SetValue(z.nodeID, binarySwitchCC, "targetValue", on)
}

// checkNode warns when the configured node is absent or is not a
// binary switch. Runs on every (re)connect.
func (z *ZWave) checkNode(state zwavejsws.State) {
	nodes, err := state.ParseNodes()
	if err != nil {
		z.log.Error().Err(err).Msg("failed to parse zwave node list")
		return
	}
	for _, node := range nodes {
		if node.NodeID != z.nodeID {
			continue
		}
		if !hasBinarySwitch(node) {
			z.log.Warn().Str("name", node.Name).Msg("zwave node has no binary switch")
			return
		}
		ev := z.log.Info().Str("name", node.Name).Str("location", node.Location)
		if on, ok := currentSwitchValue(node); ok {
			ev = ev.Bool("on", on)
		}
		ev.Msg("zwave switch found")
		return
	}
	z.log.Warn().Msg("zwave node not present in network")
}

// logSwitchUpdate records state confirmations reported back by the
// switch after a write, and any manual toggles.
func (z *ZWave) logSwitchUpdate(event zwavejsws.Event) {
	if event.NodeID != z.nodeID || !event.IsValueUpdate() {
		return
	}
	val, err := event.ParseValueUpdated()
	if err != nil {
		z.log.Debug().Err(err).Msg("unparseable zwave value update")
		return
	}
	if val.CommandClass != binarySwitchCC || val.Property != "currentValue" {
		return
	}
	z.log.Debug().Any("on", val.NewValue).Msg("zwave switch reported state")
}

func hasBinarySwitch(node zwavejsws.Node) bool {
	for _, cc := range node.CommandClasses {
		if cc.ID == binarySwitchCC {
			return true
		}
	}
	return false
}

func currentSwitchValue(node zwavejsws.Node) (bool, bool) {
	values, err := node.ParseValues()
	if err != nil {
		return false, false
	}
	for _, val := range values {
		if val.CommandClass != binarySwitchCC || val.Property != "currentValue" {
			continue
		}
		on, ok := val.Value.(bool)
		return on, ok
	}
	return false, false
}

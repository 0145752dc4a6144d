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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/pkg/zwavejsws"
)

func switchState(t *testing.T, nodeID int, ccID int, current any) zwavejsws.State {
	t.Helper()
	nodes, err := json.Marshal([]map[string]any{{
		"name":   "heat belt",
		"nodeId": nodeID,
		"commandClasses": []map[string]any{
			{"name": "Binary Switch", "id": ccID},
		},
		"values": []map[string]any{{
			"commandClass": ccID,
			"property":     "currentValue",
			"value":        current,
		}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return zwavejsws.State{Nodes: nodes}
}

func TestZWaveCheckNode(t *testing.T) {
	cases := []struct {
		name  string
		state zwavejsws.State
		want  string
	}{
		{
			name:  "switch present",
			state: switchState(t, 7, binarySwitchCC, false),
			want:  "zwave switch found",
		},
		{
			name:  "node missing",
			state: switchState(t, 9, binarySwitchCC, false),
			want:  "zwave node not present",
		},
		{
			name:  "not a switch",
			state: switchState(t, 7, 0x31, false),
			want:  "no binary switch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			z := &ZWave{nodeID: 7, log: zerolog.New(&buf)}
			z.checkNode(tc.state)
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("log = %q, want substring %q", buf.String(), tc.want)
			}
		})
	}
}

func TestZWaveLogsOnlySwitchConfirmations(t *testing.T) {
	args, err := json.Marshal(map[string]any{
		"commandClass": binarySwitchCC,
		"property":     "currentValue",
		"newValue":     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	z := &ZWave{nodeID: 7, log: zerolog.New(&buf)}

	z.logSwitchUpdate(zwavejsws.Event{Type: "value updated", NodeID: 7, Args: args})
	if !strings.Contains(buf.String(), "reported state") {
		t.Errorf("log = %q, want confirmation", buf.String())
	}

	buf.Reset()
	z.logSwitchUpdate(zwavejsws.Event{Type: "value updated", NodeID: 3, Args: args})
	if buf.Len() != 0 {
		t.Errorf("other node's event should be ignored, got %q", buf.String())
	}
}

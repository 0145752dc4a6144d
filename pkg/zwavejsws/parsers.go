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

package zwavejsws

import (
	"encoding/json"
	"fmt"
)

func (e Event) IsValueUpdate() bool {
	return e.Type == "value updated"
}

// ParseValueUpdated parses a "value updated" event into its args.
func (e Event) ParseValueUpdated() (UpdatedValue, error) {
	if !e.IsValueUpdate() {
		return UpdatedValue{}, fmt.Errorf("not a value updated event")
	}
	var value UpdatedValue
	if err := json.Unmarshal(e.Args, &value); err != nil {
		return UpdatedValue{}, fmt.Errorf("unmarshal zwave-js UpdatedValue: %w", err)
	}
	return value, nil
}

func (s State) ParseNodes() ([]Node, error) {
	var nodes []Node
	if err := json.Unmarshal(s.Nodes, &nodes); err != nil {
		return nil, fmt.Errorf("unmarshal zwave-js nodes: %w", err)
	}
	return nodes, nil
}

func (n Node) ParseValues() ([]Value, error) {
	var values []Value
	if err := json.Unmarshal(n.Values, &values); err != nil {
		return nil, fmt.Errorf("unmarshal zwave-js node values: %w", err)
	}
	return values, nil
}

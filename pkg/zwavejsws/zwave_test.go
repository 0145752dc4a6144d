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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// fakeServer speaks just enough of the zwave-js-server protocol:
// it answers start_listening with a one-node network and then pushes
// a value updated event.
func fakeServer(t *testing.T, commands chan<- map[string]any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			commands <- msg

			if msg["command"] != "start_listening" {
				continue
			}
			err := conn.WriteJSON(map[string]any{
				"type":      "result",
				"messageId": "start_listening",
				"success":   true,
				"result": map[string]any{
					"state": map[string]any{
						"controller": map[string]any{"homeId": 1},
						"nodes": []map[string]any{{
							"name":     "heat belt",
							"location": "cellar",
							"nodeId":   7,
							"commandClasses": []map[string]any{
								{"name": "Binary Switch", "id": 0x25},
							},
							"values": []map[string]any{{
								"commandClass": 0x25,
								"property":     "currentValue",
								"value":        false,
							}},
						}},
					},
				},
			})
			if err != nil {
				return
			}
			err = conn.WriteJSON(map[string]any{
				"type": "event",
				"event": map[string]any{
					"source": "node",
					"event":  "value updated",
					"nodeId": 7,
					"args": map[string]any{
						"commandClass": 0x25,
						"property":     "currentValue",
						"newValue":     true,
						"prevValue":    false,
					},
				},
			})
			if err != nil {
				return
			}
		}
	}))
}

func waitCommand(t *testing.T, commands <-chan map[string]any, want string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-commands:
			if msg["command"] == want {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for command %q", want)
		}
	}
}

func TestClientSession(t *testing.T) {
	commands := make(chan map[string]any, 8)
	srv := fakeServer(t, commands)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	client := NewClient(url, zerolog.Nop())

	states := make(chan State, 1)
	events := make(chan Event, 8)
	client.OnState(func(s State) { states <- s })
	client.OnEvent(func(e Event) { events <- e })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	waitCommand(t, commands, "initialize")
	waitCommand(t, commands, "start_listening")

	var state State
	select {
	case state = <-states:
	case <-time.After(2 * time.Second):
		t.Fatal("no state callback")
	}
	nodes, err := state.ParseNodes()
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	if len(nodes) != 1 || nodes[0].NodeID != 7 || nodes[0].Name != "heat belt" {
		t.Fatalf("nodes = %+v", nodes)
	}
	values, err := nodes[0].ParseValues()
	if err != nil {
		t.Fatalf("ParseValues: %v", err)
	}
	if len(values) != 1 || values[0].Value != false {
		t.Errorf("values = %+v", values)
	}

	var event Event
	select {
	case event = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no event callback")
	}
	if !event.IsValueUpdate() || event.NodeID != 7 {
		t.Fatalf("event = %+v", event)
	}
	update, err := event.ParseValueUpdated()
	if err != nil {
		t.Fatalf("ParseValueUpdated: %v", err)
	}
	if update.Property != "currentValue" || update.NewValue != true {
		t.Errorf("update = %+v", update)
	}

	if err := client.SetValue(7, 0x25, "targetValue", true); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	cmd := waitCommand(t, commands, "node.set_value")
	if cmd["nodeId"] != float64(7) {
		t.Errorf("nodeId = %v", cmd["nodeId"])
	}
	args, ok := cmd["args"].(map[string]any)
	if !ok || args["value"] != true || args["property"] != "targetValue" {
		t.Errorf("args = %v", cmd["args"])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestSetValueWhileDisconnected(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1", zerolog.Nop())
	if err := client.SetValue(7, 0x25, "targetValue", true); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

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

// Package zwavejsws is a client for the zwave-js-server websocket
// API, used to drive Z-Wave switch modules such as smart plugs.
package zwavejsws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ---------- Types ----------
// SEE: https://github.com/zwave-js/zwave-js-server#api

// Response from zwave-js
type Response struct {
	Type string `json:"type"`

	// result type
	MessageId string          `json:"messageId,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`

	// event type
	Event json.RawMessage `json:"event,omitempty"`
}

// Result from a "start_listening" command
type Result struct {
	State State `json:"state"`
}

type State struct {
	Controller struct {
		HomeID uint32 `json:"homeId"`
	} `json:"controller"`
	Nodes json.RawMessage `json:"nodes"`
}

// Node represents a zwave-js node
type Node struct {
	Name     string          `json:"name"`
	Location string          `json:"location"`
	NodeID   int             `json:"nodeId"`
	Values   json.RawMessage `json:"values"`

	DeviceClass struct {
		Generic struct {
			Key   int    `json:"key"`
			Label string `json:"label"`
		} `json:"generic"`
	} `json:"deviceClass"`

	CommandClasses []struct {
		Name     string `json:"name"`
		ID       int    `json:"id"`
		Version  int    `json:"version,omitempty"`
		IsSecure bool   `json:"isSecure,omitempty"`
	} `json:"commandClasses"`
}

// Value represents a parsed value from a node
type Value struct {
	CCVersion        int      `json:"ccVersion"`
	CommandClass     int      `json:"commandClass"`
	CommandClassName string   `json:"commandClassName"`
	Endpoint         int      `json:"endpoint"`
	Metadata         Metadata `json:"metadata"`
	Property         any      `json:"property"`
	PropertyName     string   `json:"propertyName"`
	Value            any      `json:"value"`
}

// Metadata provides additional info about a Value
type Metadata struct {
	Label     string `json:"label,omitempty"`
	Readable  bool   `json:"readable,omitempty"`
	Writeable bool   `json:"writeable,omitempty"`
	Type      string `json:"type,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

// Event represents a parsed zwave-js event
type Event struct {
	Type   string          `json:"event"`
	NodeID int             `json:"nodeId,omitempty"`
	Source string          `json:"source,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// UpdatedValue are the Event Args for "value updated" events
type UpdatedValue struct {
	CommandClass     int    `json:"commandClass"`
	CommandClassName string `json:"commandClassName"`
	Endpoint         int    `json:"endpoint"`
	NewValue         any    `json:"newValue"`
	PrevValue        any    `json:"prevValue"`
	Property         string `json:"property"`
	PropertyName     string `json:"propertyName"`
}

// ErrNotConnected is returned for commands issued while the session
// is down. Callers retry on the next control cycle.
var ErrNotConnected = errors.New("zwave-js not connected")

// Client manages the websocket session. State and event handlers may
// be registered by any number of consumers before Run starts.
type Client struct {
	url       string
	retryWait time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	msgID   int
	onState []func(State)
	onEvent []func(Event)
}

// ---------- Public API ----------

func NewClient(url string, log zerolog.Logger) *Client {
	return &Client{
		url:       url,
		retryWait: 5 * time.Second,
		log:       log.With().Str("service", "zwave").Logger(),
	}
}

// OnState adds a callback invoked with the network state after every
// (re)connect.
func (c *Client) OnState(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// OnEvent adds a callback invoked for every zwave-js event.
func (c *Client) OnEvent(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = append(c.onEvent, fn)
}

// SendCommand sends a raw command to zwave-js.
func (c *Client) SendCommand(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

// SetValue sets a value on a node.
func (c *Client) SetValue(nodeID int, commandClass int, property string, value any) error {
	c.mu.Lock()
	c.msgID++
	id := fmt.Sprintf("set_value_%d", c.msgID)
	c.mu.Unlock()

	return c.SendCommand(map[string]any{
		"messageId": id,
		"command":   "node.set_value",
		"nodeId":    nodeID,
		"args": map[string]any{
			"commandClass": commandClass,
			"property":     property,
			"value":        value,
		},
	})
}

// Run keeps a session open until the context is cancelled,
// redialling after failures.
func (c *Client) Run(ctx context.Context) {
	c.log.Info().Str("url", c.url).Msg("zwave client started")
	defer c.log.Info().Msg("zwave client stopped")

	go func() {
		// unblocks any pending read on shutdown
		<-ctx.Done()
		c.Close()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.connect(ctx); err != nil {
			c.log.Warn().Err(err).Dur("retry_in", c.retryWait).Msg("zwave connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryWait):
			}
			continue
		}
		for {
			if err := c.listenNext(); err != nil {
				if ctx.Err() == nil {
					c.log.Warn().Err(err).Msg("zwave session ended")
				}
				c.Close()
				break
			}
		}
	}
}

// Close tears down the session. Run redials unless its context is
// done.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		conn := c.conn
		c.conn = nil
		conn.Close()
	}
}

// ---------- Internal ----------

// connect dials the server and starts the event stream. A no-op when
// the session is already up.
func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	err = conn.WriteJSON(map[string]any{
		"messageId":     "initialize",
		"command":       "initialize",
		"schemaVersion": 1})
	if err != nil {
		conn.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	err = conn.WriteJSON(map[string]any{
		"messageId": "start_listening",
		"command":   "start_listening",
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("start_listening: %w", err)
	}

	c.conn = conn
	c.log.Info().Msg("connected")
	return nil
}

func (c *Client) connection() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) listenNext() error {
	conn := c.connection()
	if conn == nil {
		return ErrNotConnected
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.log.Error().Err(err).Msg("bad zwave-js message")
		return nil
	}

	switch resp.Type {
	case "result":
		c.handleResponse(resp)
	case "event":
		c.handleEvent(resp)
	default:
		c.log.Debug().Str("type", resp.Type).Msg("unhandled zwave-js message type")
	}
	return nil
}

// handleResponse processes "result" type messages
func (c *Client) handleResponse(resp Response) {
	if resp.MessageId == "start_listening" {
		if !resp.Success {
			c.log.Error().Msg("start_listening failed; no network state available")
			return
		}
		var result Result
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			c.log.Error().Err(err).Msg("bad start_listening result")
			return
		}
		for _, fn := range c.stateHandlers() {
			fn(result.State)
		}
		return
	}

	if !resp.Success {
		c.log.Error().Str("message_id", resp.MessageId).Msg("zwave-js command failed")
	} else {
		c.log.Debug().Str("message_id", resp.MessageId).Msg("zwave-js command succeeded")
	}
}

// handleEvent processes "event" type messages
func (c *Client) handleEvent(resp Response) {
	handlers := c.eventHandlers()
	if len(handlers) == 0 {
		return
	}
	var event Event
	if err := json.Unmarshal(resp.Event, &event); err != nil {
		c.log.Error().Err(err).Msg("bad zwave-js event")
		return
	}
	for _, fn := range handlers {
		fn(event)
	}
}

func (c *Client) stateHandlers() []func(State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onState
}

func (c *Client) eventHandlers() []func(Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onEvent
}

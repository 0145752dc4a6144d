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

package modbus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	wrapper "github.com/grid-x/modbus"
	"github.com/rs/zerolog"
)

// Client wraps a modbus TCP connection shared by every relay and
// sensor on the same device. All operations serialize on one mutex;
// concurrent register access against these devices is unsafe.
type Client struct {
	mu      sync.Mutex
	handler *wrapper.TCPClientHandler
	client  wrapper.Client
	config  *Config
	log     zerolog.Logger
	ctx     context.Context
}

const (
	coilOn  = 0xFF00
	coilOff = 0x0000
)

// NewClient connects a modbus TCP client, retrying with backoff until
// connected or ctx is canceled.
func NewClient(ctx context.Context, config *Config, log zerolog.Logger) (*Client, error) {
	c := &Client{
		config: config,
		log:    log.With().Str("component", "modbus").Str("host", config.Modbus.Host).Logger(),
		ctx:    ctx,
	}
	if err := c.connectWithRetry(); err != nil {
		return nil, err
	}
	return c, nil
}

// connectWithRetry tries to connect, backing off exponentially up to
// 30s, until success or context cancellation.
func (c *Client) connectWithRetry() error {
	backoff := time.Second
	for {
		err := c.connect()
		if err == nil {
			return nil
		}
		c.log.Error().Err(err).Dur("backoff", backoff).Msg("modbus connect failed, retrying")

		select {
		case <-c.ctx.Done():
			return fmt.Errorf("modbus connect aborted: %w", c.ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}
	}
}

// connect safely (re)connects the modbus client once.
func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		_ = c.handler.Close()
	}

	url := fmt.Sprintf("%s:%d", c.config.Modbus.Host, c.config.Modbus.Port)
	handler := wrapper.NewTCPClientHandler(url)
	handler.SlaveID = c.config.Modbus.SlaveID
	handler.Timeout = time.Second * time.Duration(c.config.Modbus.Timeout)
	handler.ProtocolRecoveryTimeout = 250 * time.Millisecond
	handler.LinkRecoveryTimeout = 5 * time.Second

	c.log.Info().Str("url", url).Msg("connecting")
	if err := handler.Connect(c.ctx); err != nil {
		return fmt.Errorf("modbus connect failed: %w", err)
	}

	c.handler = handler
	c.client = wrapper.NewClient(handler)
	c.log.Info().Str("url", url).Msg("connected")
	return nil
}

// retry wraps modbus operations and reconnects automatically if the
// connection dropped.
func (c *Client) retry(op func() error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !isConnError(err) {
			c.log.Debug().Err(err).Msg("retrying modbus op")
			continue
		}
		c.log.Error().Err(err).Msg("connection error, reconnecting")
		if cerr := c.connectWithRetry(); cerr != nil {
			return cerr
		}
	}
	return err
}

// ReadHoldingRegisters reads holding registers, retrying if needed.
func (c *Client) ReadHoldingRegisters(ctx context.Context, addr, quantity uint16) ([]byte, error) {
	var data []byte
	err := c.retry(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		var rerr error
		data, rerr = c.client.ReadHoldingRegisters(ctx, addr, quantity)
		return rerr
	})
	return data, err
}

// ReadInputRegisters reads input registers, retrying if needed.
func (c *Client) ReadInputRegisters(ctx context.Context, addr, quantity uint16) ([]byte, error) {
	var data []byte
	err := c.retry(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		var rerr error
		data, rerr = c.client.ReadInputRegisters(ctx, addr, quantity)
		return rerr
	})
	return data, err
}

// WriteCoil drives a single coil on or off, retrying if needed.
func (c *Client) WriteCoil(ctx context.Context, addr uint16, on bool) error {
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	return c.retry(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := c.client.WriteSingleCoil(ctx, addr, value)
		return err
	})
}

// Close closes the underlying handler.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		_ = c.handler.Close()
	}
}

// --- helpers ---

func isConnError(err error) bool {
	if err == nil {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "closed by the remote host") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection refused")
}

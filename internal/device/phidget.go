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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type PhidgetConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Name      string        `mapstructure:"name"`
	Channel   int           `mapstructure:"channel"`
	HubPort   int           `mapstructure:"hub_port"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type digitalOutRequest struct {
	Name        string `json:"name"`
	TargetState bool   `json:"target_state"`
	Channel     int    `json:"channel"`
	HubPort     int    `json:"hub_port"`
}

// Phidget switches a digital output channel on a phidget bridge
// service over HTTP.
type Phidget struct {
	cfg    PhidgetConfig
	client *http.Client
}

func NewPhidget(cfg PhidgetConfig) (*Phidget, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("phidget device: server_url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Phidget{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (p *Phidget) Set(ctx context.Context, on bool) error {
	data, err := json.Marshal(digitalOutRequest{
		Name:        p.cfg.Name,
		TargetState: on,
		Channel:     p.cfg.Channel,
		HubPort:     p.cfg.HubPort,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	url := fmt.Sprintf("%s/phidgets/digital_out", p.cfg.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP POST failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

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

//go:build linux

package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO drives a relay board wired to a Pi header line. The line is
// requested as output and driven low on Close so a daemon restart
// never leaves a heat wrap energized.
type GPIO struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func NewGPIO(cfg GPIOConfig) (*GPIO, error) {
	chipName := cfg.Chip
	if chipName == "" {
		chipName = "gpiochip0"
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := chip.RequestLine(cfg.Line, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request line %d on %s: %w", cfg.Line, chipName, err)
	}

	return &GPIO{chip: chip, line: line}, nil
}

func (g *GPIO) Set(ctx context.Context, on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := 0
	if on {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("set gpio line: %w", err)
	}
	return nil
}

func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	if g.line != nil {
		if err := g.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive line low: %w", err))
		}
		if err := g.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

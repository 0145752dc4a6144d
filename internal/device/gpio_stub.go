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

//go:build !linux

package device

import (
	"context"
	"fmt"
)

type GPIO struct{}

func NewGPIO(cfg GPIOConfig) (*GPIO, error) {
	return nil, fmt.Errorf("gpio devices require linux")
}

func (g *GPIO) Set(ctx context.Context, on bool) error {
	return fmt.Errorf("gpio devices require linux")
}

func (g *GPIO) Close() error { return nil }

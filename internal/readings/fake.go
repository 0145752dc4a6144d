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

package readings

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fake serves scripted readings. Once a script is exhausted the last
// reading repeats, mirroring a sensor that has gone quiet.
type Fake struct {
	mu sync.Mutex

	Temperatures map[string][]Reading
	Gravities    map[string][]Reading

	// When set, the next matching call returns this error once.
	TemperatureErr error
	GravityErr     error

	tempIndex map[string]int
	gravIndex map[string]int
}

func NewFake() *Fake {
	return &Fake{
		Temperatures: make(map[string][]Reading),
		Gravities:    make(map[string][]Reading),
		tempIndex:    make(map[string]int),
		gravIndex:    make(map[string]int),
	}
}

func (f *Fake) AddTemperature(vessel string, rs ...Reading) {
	f.mu.Lock()
	f.Temperatures[vessel] = append(f.Temperatures[vessel], rs...)
	f.mu.Unlock()
}

func (f *Fake) AddGravity(vessel string, rs ...Reading) {
	f.mu.Lock()
	f.Gravities[vessel] = append(f.Gravities[vessel], rs...)
	f.mu.Unlock()
}

func (f *Fake) GetTemperature(ctx context.Context, vessel string) (Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.TemperatureErr; err != nil {
		f.TemperatureErr = nil
		return Reading{}, err
	}
	return next(f.Temperatures[vessel], f.tempIndex, vessel)
}

func (f *Fake) GetGravity(ctx context.Context, vessel string) (Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.GravityErr; err != nil {
		f.GravityErr = nil
		return Reading{}, err
	}
	return next(f.Gravities[vessel], f.gravIndex, vessel)
}

func next(script []Reading, index map[string]int, vessel string) (Reading, error) {
	if len(script) == 0 {
		return Reading{}, fmt.Errorf("no scripted readings for vessel %q", vessel)
	}
	i := index[vessel]
	if i >= len(script) {
		return script[len(script)-1], nil
	}
	index[vessel] = i + 1
	return script[i], nil
}

// Static reports fixed values stamped with the current time. Useful
// for exercising a rig before its sensors are plumbed in.
type Static struct {
	Temperature float64
	Gravity     float64
}

func (s Static) GetTemperature(ctx context.Context, vessel string) (Reading, error) {
	return Reading{Value: s.Temperature, ObservedAt: time.Now()}, nil
}

func (s Static) GetGravity(ctx context.Context, vessel string) (Reading, error) {
	return Reading{Value: s.Gravity, ObservedAt: time.Now()}, nil
}

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

// Package device drives the physical switches behind glycol valves
// and heat wraps: GPIO lines, Modbus coils, and networked phidget
// bridges. Every driver exposes Set(ctx, on) and treats a failed
// write as an error for the caller to retry; none of them latch
// state on the controller side.
package device

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Transition is one observed output change, recorded by test fakes.
type Transition struct {
	Device string
	On     bool
	At     time.Time
}

// Journal collects transitions across several fakes so tests can
// assert ordering between devices sharing one vessel.
type Journal struct {
	mu      sync.Mutex
	entries []Transition
}

func (j *Journal) add(t Transition) {
	j.mu.Lock()
	j.entries = append(j.entries, t)
	j.mu.Unlock()
}

func (j *Journal) Entries() []Transition {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Transition, len(j.entries))
	copy(out, j.entries)
	return out
}

// Fake is an in-memory driver for tests.
type Fake struct {
	Name    string
	Journal *Journal

	// SetErr fails every Set while non-nil. FailCount fails the next
	// N calls and then recovers.
	SetErr    error
	FailCount int

	mu   sync.Mutex
	on   bool
	sets []Transition
}

func NewFake(name string) *Fake {
	return &Fake{Name: name}
}

func (f *Fake) Set(ctx context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		return f.SetErr
	}
	if f.FailCount > 0 {
		f.FailCount--
		return errors.New("injected device failure")
	}
	f.on = on
	tr := Transition{Device: f.Name, On: on, At: time.Now()}
	f.sets = append(f.sets, tr)
	if f.Journal != nil {
		f.Journal.add(tr)
	}
	return nil
}

// On reports the last successfully written state.
func (f *Fake) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Sets returns every successful write in order.
func (f *Fake) Sets() []Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Transition, len(f.sets))
	copy(out, f.sets)
	return out
}

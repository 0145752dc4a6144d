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

package statesink

import (
	"context"
	"sync"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

// Fake collects records in memory for tests.
type Fake struct {
	RecordErr error

	mu     sync.Mutex
	states []events.VesselState
	closed bool
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Record(ctx context.Context, state events.VesselState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RecordErr != nil {
		return f.RecordErr
	}
	f.states = append(f.states, state)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) States() []events.VesselState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.VesselState, len(f.states))
	copy(out, f.states)
	return out
}

func (f *Fake) Last() (events.VesselState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return events.VesselState{}, false
	}
	return f.states[len(f.states)-1], true
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

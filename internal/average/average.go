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

// Package average implements the weighted moving average used to
// smooth sensor readings. The newest sample in the window carries the
// largest weight (equal to the number of populated slots), descending
// to weight 1 for the oldest, so a fresh reading moves the average
// harder as the window fills. Duty-cycle tuning is calibrated against
// this responsiveness; a plain mean is not a drop-in replacement.
package average

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFinite rejects NaN and infinite samples.
var ErrNotFinite = errors.New("sample is not a finite number")

// Window is a fixed-capacity ring of samples. Not safe for concurrent
// use; each window is private to its owning decision engine.
type Window struct {
	values []float64
	next   int
	count  int
	avg    float64
}

// NewWindow returns a window holding up to capacity samples.
func NewWindow(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be positive, got %d", capacity)
	}
	return &Window{values: make([]float64, capacity)}, nil
}

// Record appends a sample, evicting the oldest when at capacity, and
// returns the new weighted average. Non-finite values are rejected and
// do not enter the window.
func (w *Window) Record(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotFinite, value)
	}
	w.values[w.next] = value
	w.next = (w.next + 1) % len(w.values)
	if w.count < len(w.values) {
		w.count++
	}
	w.avg = w.weighted()
	return w.avg, nil
}

// Current returns the last computed average. The second return is
// false until the first sample is recorded.
func (w *Window) Current() (float64, bool) {
	return w.avg, w.count > 0
}

// Count returns the number of populated slots.
func (w *Window) Count() int {
	return w.count
}

// Capacity returns the configured window size.
func (w *Window) Capacity() int {
	return len(w.values)
}

// weighted walks the populated slots newest to oldest, weighting the
// newest with count and the oldest with 1.
func (w *Window) weighted() float64 {
	var sum, weights float64
	weight := float64(w.count)
	for i := 0; i < w.count; i++ {
		idx := (w.next - 1 - i + len(w.values)) % len(w.values)
		sum += weight * w.values[idx]
		weights += weight
		weight--
	}
	return sum / weights
}
